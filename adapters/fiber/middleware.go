package fiber

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/walletbind/core"
)

const (
	localsIdentity = "identity"
	localsSession  = "session"
	localsError    = "error"

	tokenCookie = "auth_token"
)

// requireSession validates the caller's token and stores the identity and
// session in the context for downstream handlers.
func (a *Adapter) requireSession(handler core.AuthHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return handleAuthError(c, core.ErrMissingAuthHeader)
		}

		sessionData, err := handler.GetSession(c.Context(), token)
		if err != nil {
			respErr := handleAuthError(c, err)
			a.logServerError(c)
			return respErr
		}

		c.Locals(localsIdentity, sessionData.Identity)
		c.Locals(localsSession, sessionData.Session)

		return c.Next()
	}
}

// extractToken extracts the authentication token from the request.
// Checks Authorization header (Bearer token) first, then falls back to cookie.
func extractToken(c fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}

	return c.Cookies(tokenCookie)
}

// logServerError reports the cause of a 500 response, which the client
// never sees.
func (a *Adapter) logServerError(c fiber.Ctx) {
	if err, ok := c.Locals(localsError).(error); ok {
		a.logger.ErrorContext(c.Context(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
	}
}
