package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret"

func signedToken(t *testing.T, claims jwt.Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   "0194e2a3-5f2c-7a40-b493-111111111111",
		Audience:  jwt.ClaimStrings{supabaseAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestVerifyToken(t *testing.T) {
	claims := Claims{RegisteredClaims: validClaims(), Email: "a@b.c", Role: "authenticated"}
	got, err := VerifyToken(signedToken(t, claims, testSecret), testSecret)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", got.Email)
	assert.Equal(t, claims.Subject, got.Subject)
}

func TestVerifyTokenFailures(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return signedToken(t, validClaims(), "other-secret")
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				claims := validClaims()
				claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
				return signedToken(t, claims, testSecret)
			},
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				claims := validClaims()
				claims.Audience = jwt.ClaimStrings{"service_role"}
				return signedToken(t, claims, testSecret)
			},
		},
		{
			name: "garbage",
			token: func(t *testing.T) string {
				return "not.a.token"
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyToken(tt.token(t), testSecret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
