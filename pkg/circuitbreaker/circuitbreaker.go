package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

type Config struct {
	Name             string
	FailureThreshold int           // consecutive failures that open the breaker
	OpenTimeout      time.Duration // how long it stays open before probing
	// HalfOpenRequests is both the number of probes let through while
	// half-open and the successes needed to close again.
	HalfOpenRequests int
}

func DefaultConfig() Config {
	return Config{
		Name:             "default",
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// CircuitBreaker stops calling a dependency after repeated failures and
// periodically lets a probe through to see whether it recovered.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

type Option func(*gobreaker.Settings)

// OnStateChange registers fn to run on every transition. It runs while the
// breaker holds its lock and must not call back into it.
func OnStateChange(fn func(from, to State)) Option {
	return func(s *gobreaker.Settings) {
		s.OnStateChange = func(_ string, from, to gobreaker.State) { fn(from, to) }
	}
}

func New(cfg Config, opts ...Option) *CircuitBreaker {
	def := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.HalfOpenRequests <= 0 {
		cfg.HalfOpenRequests = def.HalfOpenRequests
	}

	threshold := uint32(cfg.FailureThreshold)
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(cfg.HalfOpenRequests),
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	}
	for _, opt := range opts {
		opt(&settings)
	}
	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Do runs fn unless the breaker is open. The error of fn is returned as is.
func (b *CircuitBreaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

func (b *CircuitBreaker) State() State {
	return b.cb.State()
}
