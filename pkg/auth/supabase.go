package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
)

// Supabase issues HS256 access tokens signed with the project's JWT
// secret; the audience is fixed.
const supabaseAudience = "authenticated"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrLockedOut    = errors.New("too many failed attempts")
)

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// VerifyToken validates a Supabase access token and returns its claims.
func VerifyToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(secret), nil
		},
		jwt.WithAudience(supabaseAudience),
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware returns a fiber handler enforcing a valid Supabase token.
// Failed attempts count against the lockout tracker (keyed by client ip);
// a locked client receives 423 until the lockout expires.
func Middleware(secret string, limiter *Limiter) fiber.Handler {
	l := log.Default().Named("auth")
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if limiter != nil && limiter.Locked(c.Context(), key) {
			return c.Status(fiber.StatusLocked).
				JSON(fiber.Map{"error": ErrLockedOut.Error()})
		}

		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"error": "missing bearer token"})
		}
		claims, err := VerifyToken(header[len("Bearer "):], secret)
		if err != nil {
			if limiter != nil {
				limiter.RecordFailure(c.Context(), key)
			}
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"error": ErrInvalidToken.Error()})
		}
		if limiter != nil {
			limiter.Reset(c.Context(), key)
		}

		userID, err := uuid.FromString(claims.Subject)
		if err != nil {
			l.Debug("token subject is not a uuid", log.String("sub", claims.Subject))
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"error": ErrInvalidToken.Error()})
		}
		c.Locals("userId", userID)
		c.Locals("userEmail", claims.Email)
		return c.Next()
	}
}
