package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dchest/captcha"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultCaptchaLength = 5
	DefaultCaptchaTTL    = 5 * time.Minute

	captchaWidth  = 130
	captchaHeight = 40
)

var ErrCaptchaMismatch = errors.New("captcha mismatch")

// CaptchaChallenge is rendered on the login page. Token goes into the captcha
// cookie; it carries only a MAC of the answer.
type CaptchaChallenge struct {
	Answer string
	Image  string // data URI
	Token  string
}

type CaptchaService struct {
	secret []byte
	length int
	ttl    time.Duration
	now    func() time.Time
}

func NewCaptchaService(secret string, length int, ttl time.Duration) *CaptchaService {
	if length <= 0 {
		length = DefaultCaptchaLength
	}
	if ttl <= 0 {
		ttl = DefaultCaptchaTTL
	}
	return &CaptchaService{
		secret: []byte(secret),
		length: length,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *CaptchaService) TTL() time.Duration {
	return s.ttl
}

func (s *CaptchaService) New() (*CaptchaChallenge, error) {
	digits := captcha.RandomDigits(s.length)

	var buf bytes.Buffer
	if _, err := captcha.NewImage(uuid.NewString(), digits, captchaWidth, captchaHeight).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to render captcha: %w", err)
	}

	answer := make([]byte, len(digits))
	for i, d := range digits {
		answer[i] = '0' + d
	}

	token, err := s.Seal(string(answer))
	if err != nil {
		return nil, err
	}

	return &CaptchaChallenge{
		Answer: string(answer),
		Image:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Token:  token,
	}, nil
}

// Seal produces the cookie value for answer.
func (s *CaptchaService) Seal(answer string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"mac": s.mac(answer),
		"exp": jwt.NewNumericDate(s.now().Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign captcha: %w", err)
	}
	return signed, nil
}

// Verify checks the user's answer against a sealed cookie value.
func (s *CaptchaService) Verify(token, answer string) error {
	if token == "" || answer == "" {
		return ErrCaptchaMismatch
	}

	parsed, err := jwt.ParseWithClaims(token, jwt.MapClaims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return ErrCaptchaMismatch
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ErrCaptchaMismatch
	}
	want, _ := mc["mac"].(string)
	if !hmac.Equal([]byte(want), []byte(s.mac(answer))) {
		return ErrCaptchaMismatch
	}
	return nil
}

func (s *CaptchaService) mac(answer string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte("captcha:" + answer))
	return hex.EncodeToString(h.Sum(nil))
}
