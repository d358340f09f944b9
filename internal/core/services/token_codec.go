package services

import (
	"errors"
	"fmt"
	"strconv"

	"streamie/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenCodec signs and verifies session tokens. Numeric claims travel as decimal
// strings, so expiry and issuer are checked by AuthService rather than by the jwt
// parser.
type TokenCodec struct {
	secret []byte
	parser *jwt.Parser
}

func NewTokenCodec(secret string) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	return &TokenCodec{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

func (c *TokenCodec) Encode(claims domain.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": claims.Username,
		"role":     string(claims.Role),
		"iss":      claims.Issuer,
		"iat":      strconv.FormatInt(claims.IssuedAt, 10),
		"exp":      strconv.FormatInt(claims.ExpiresAt, 10),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and shape of raw. It does not look at exp or iss.
func (c *TokenCodec) Decode(raw string) (domain.Claims, error) {
	token, err := c.parser.ParseWithClaims(raw, jwt.MapClaims{}, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Claims{}, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Claims{}, ErrInvalidToken
	}

	fields := make(map[string]string, 5)
	for _, key := range []string{"username", "role", "iss", "iat", "exp"} {
		v, ok := mc[key].(string)
		if !ok {
			return domain.Claims{}, ErrInvalidToken
		}
		fields[key] = v
	}

	iat, err := strconv.ParseInt(fields["iat"], 10, 64)
	if err != nil {
		return domain.Claims{}, ErrInvalidToken
	}
	exp, err := strconv.ParseInt(fields["exp"], 10, 64)
	if err != nil {
		return domain.Claims{}, ErrInvalidToken
	}

	return domain.Claims{
		Username:  fields["username"],
		Role:      domain.ParseRole(fields["role"]),
		Issuer:    fields["iss"],
		IssuedAt:  iat,
		ExpiresAt: exp,
	}, nil
}
