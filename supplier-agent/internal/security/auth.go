// Package security guards the supplier's A2A endpoint with bearer-token
// authentication. The verifier is pluggable so test builds swap in AllowAll
// instead of flipping a runtime bypass flag.
package security

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Verifier checks a bearer token and returns the caller identity it maps to.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// StaticTokenVerifier accepts a single pre-shared token.
type StaticTokenVerifier struct {
	Token    string
	CallerID string
}

// Verify compares the presented token against the configured one.
func (v StaticTokenVerifier) Verify(_ context.Context, token string) (string, error) {
	if v.Token == "" {
		return "", fmt.Errorf("no token configured")
	}
	if token != v.Token {
		return "", fmt.Errorf("invalid token")
	}
	return v.CallerID, nil
}

// AllowAll accepts any caller. Wired only by tests and local demos.
type AllowAll struct{}

func (AllowAll) Verify(_ context.Context, _ string) (string, error) {
	return "anonymous", nil
}

// CallerKey is the fiber locals key carrying the verified caller identity.
const CallerKey = "caller_id"

// BearerAuth returns fiber middleware enforcing Authorization: Bearer <token>.
func BearerAuth(logger *zap.Logger, v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			logger.Warn("security.missing_authorization")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			logger.Warn("security.bad_authorization_scheme", zap.String("scheme", scheme))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authentication scheme"})
		}

		caller, err := v.Verify(c.Context(), token)
		if err != nil {
			logger.Warn("security.token_rejected", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals(CallerKey, caller)
		return c.Next()
	}
}
