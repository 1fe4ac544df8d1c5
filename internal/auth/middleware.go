package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/email-approval/pkg/util/errorutil"
)

const hostKey = "auth_host"

// HostAuthMiddleware validates bearer tokens presented by the dispatching host.
type HostAuthMiddleware struct {
	tokens *TokenManager
}

// NewHostAuthMiddleware constructs middleware.
func NewHostAuthMiddleware(tokens *TokenManager) *HostAuthMiddleware {
	return &HostAuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for the event webhook.
func (m *HostAuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(hostKey, claims.HostID)
	return c.Next()
}

// HostFromContext retrieves the authenticated host id.
func HostFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(hostKey)
	if val == nil {
		return "", false
	}
	hostID, ok := val.(string)
	return hostID, ok
}
