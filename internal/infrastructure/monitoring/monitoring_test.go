package monitoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector_ChatMetrics(t *testing.T) {
	p := NewPrometheusCollector()

	p.ChatSubscriberAdded()
	p.ChatSubscriberAdded()
	p.ChatSubscriberRemoved()
	assert.Equal(t, 1.0, testutil.ToFloat64(p.chatSubscribers))

	p.ChatMessagePublished("lobby")
	p.ChatMessagePublished("lobby")
	p.ChatMessagePublished("")
	assert.Equal(t, 2.0, testutil.ToFloat64(p.chatMessagesPublished.WithLabelValues("lobby")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.chatMessagesPublished.WithLabelValues("none")))

	p.ChatMessagesMissed(6)
	assert.Equal(t, 6.0, testutil.ToFloat64(p.chatMessagesMissed))
}

func TestPrometheusCollector_IndependentRegistries(t *testing.T) {
	a := NewPrometheusCollector()
	b := NewPrometheusCollector()

	a.RecordLogin("success")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.loginAttempts.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.loginAttempts.WithLabelValues("success")))
}

func TestPrometheusCollector_Handler(t *testing.T) {
	p := NewPrometheusCollector()
	p.ObserveHTTPRequest(http.MethodGet, "/sessions", http.StatusOK, 20*time.Millisecond)

	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `streamie_http_requests_total{method="GET",route="/sessions",status="200"} 1`)
}

func TestHealthChecker_CheckAll(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("mongo", time.Second, func(ctx context.Context) error { return nil })
	assert.True(t, h.IsReady(context.Background()))

	h.AddCheck("redis", time.Second, func(ctx context.Context) error { return errors.New("connection refused") })
	status := h.CheckAll(context.Background())

	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "healthy", status.Checks["mongo"])
	assert.Equal(t, "connection refused", status.Checks["redis"])
}

func TestHealthChecker_TimeoutApplied(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.False(t, h.IsReady(context.Background()))
}
