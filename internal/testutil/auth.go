package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pennywise/internal/config"
	"pennywise/internal/middleware"
)

// AccessToken signs a short-lived access token for userID with the configured secret.
func AccessToken(t *testing.T, userID uint) string {
	t.Helper()

	claims := &middleware.JWTClaims{
		UserID:    userID,
		TokenType: middleware.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Get().JWTSecret))
	if err != nil {
		t.Fatalf("failed to sign access token: %v", err)
	}
	return token
}
