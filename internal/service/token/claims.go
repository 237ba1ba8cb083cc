package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campolibero/campo_market/internal/apperr"
)

type AccessClaims struct {
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Typ string `json:"typ"`
	jwt.RegisteredClaims
}

// Parse failures collapse into ErrUnauthorized: callers must not be able to
// distinguish a forged token from an expired one.
func parseAccessClaims(raw string, secret []byte) (*AccessClaims, error) {
	claims := &AccessClaims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("invalid access token: %w", apperr.ErrUnauthorized)
	}
	return claims, nil
}

func parseRefreshClaims(raw string, secret []byte) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("invalid refresh token: %w", apperr.ErrUnauthorized)
	}
	if claims.Typ != "refresh" {
		return nil, fmt.Errorf("not a refresh token: %w", apperr.ErrUnauthorized)
	}
	return claims, nil
}
