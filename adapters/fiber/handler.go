package fiber

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/walletbind/core"
)

const (
	msgInvalidBody = "invalid request body"
	msgRegistered  = "this email is already registered; sign in with your existing method"
	msgConflict    = "a different wallet is already linked to this account"
	msgInternal    = "internal server error"
)

// handleAuthenticateFiber returns a handler for the wallet authenticate endpoint
func handleAuthenticateFiber(authHandler core.AuthHandler) func(*core.RequestContext) error {
	return func(ctx *core.RequestContext) error {
		fctx := ctx.Request.(fiber.Ctx)

		var input core.AuthenticateInput
		if err := fctx.Bind().Body(&input); err != nil {
			return badBody(fctx)
		}

		result, err := authHandler.Authenticate(fctx.Context(), input)
		if err != nil {
			return handleAuthError(fctx, err)
		}

		return fctx.Status(http.StatusOK).JSON(result)
	}
}

func handleSignableMessageFiber(authHandler core.AuthHandler) func(*core.RequestContext) error {
	return func(ctx *core.RequestContext) error {
		fctx := ctx.Request.(fiber.Ctx)

		message, err := authHandler.SignableMessage(fctx.Query("nonce"))
		if err != nil {
			return handleAuthError(fctx, err)
		}

		return fctx.Status(http.StatusOK).JSON(fiber.Map{"message": message})
	}
}

// handleConnectWalletFiber links a wallet to the identity resolved by the
// session middleware.
func handleConnectWalletFiber(authHandler core.AuthHandler) func(*core.RequestContext) error {
	return func(ctx *core.RequestContext) error {
		fctx := ctx.Request.(fiber.Ctx)

		var input core.ConnectWalletInput
		if err := fctx.Bind().Body(&input); err != nil {
			return badBody(fctx)
		}

		result, err := authHandler.ConnectWallet(fctx.Context(), ctx.Identity, input)
		if err != nil {
			return handleAuthError(fctx, err)
		}

		return fctx.Status(http.StatusOK).JSON(result)
	}
}

func handleDisconnectWalletFiber(authHandler core.AuthHandler) func(*core.RequestContext) error {
	return func(ctx *core.RequestContext) error {
		fctx := ctx.Request.(fiber.Ctx)

		result, err := authHandler.DisconnectWallet(fctx.Context(), ctx.Identity)
		if err != nil {
			return handleAuthError(fctx, err)
		}

		return fctx.Status(http.StatusOK).JSON(result)
	}
}

// handleExchangeTokenFiber redeems a transfer token and sets the session cookie
func handleExchangeTokenFiber(authHandler core.AuthHandler) func(*core.RequestContext) error {
	return func(ctx *core.RequestContext) error {
		fctx := ctx.Request.(fiber.Ctx)

		var input core.ExchangeInput
		if err := fctx.Bind().Body(&input); err != nil {
			return badBody(fctx)
		}

		ipAddress := fctx.IP()
		userAgent := fctx.Get(fiber.HeaderUserAgent)

		result, err := authHandler.ExchangeToken(fctx.Context(), input, ipAddress, userAgent)
		if err != nil {
			return handleAuthError(fctx, err)
		}

		fctx.Cookie(&fiber.Cookie{
			Name:     tokenCookie,
			Value:    result.Token,
			Path:     "/",
			Expires:  result.Session.ExpiresAt,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		return fctx.Status(http.StatusOK).JSON(result)
	}
}

// handleGetSessionFiber returns the session resolved by the middleware
func handleGetSessionFiber(authHandler core.AuthHandler) func(*core.RequestContext) error {
	return func(ctx *core.RequestContext) error {
		fctx := ctx.Request.(fiber.Ctx)

		if ctx.Identity == nil || ctx.Session == nil {
			return handleAuthError(fctx, core.ErrNotAuthenticated)
		}

		return fctx.Status(http.StatusOK).JSON(core.SessionData{
			Identity: ctx.Identity,
			Session:  ctx.Session,
		})
	}
}

// handleSignOutFiber returns a handler for the sign-out endpoint
func handleSignOutFiber(authHandler core.AuthHandler) func(*core.RequestContext) error {
	return func(ctx *core.RequestContext) error {
		fctx := ctx.Request.(fiber.Ctx)

		token := extractToken(fctx)
		if token == "" {
			return handleAuthError(fctx, core.ErrMissingAuthHeader)
		}

		if err := authHandler.SignOut(fctx.Context(), token); err != nil {
			return handleAuthError(fctx, err)
		}

		fctx.ClearCookie(tokenCookie)

		return fctx.Status(http.StatusOK).JSON(fiber.Map{
			"message": "signed out successfully",
		})
	}
}

// handleSignOutEverywhereFiber revokes all of the caller's sessions.
func handleSignOutEverywhereFiber(authHandler core.AuthHandler) func(*core.RequestContext) error {
	return func(ctx *core.RequestContext) error {
		fctx := ctx.Request.(fiber.Ctx)

		result, err := authHandler.SignOutEverywhere(fctx.Context(), ctx.Identity)
		if err != nil {
			return handleAuthError(fctx, err)
		}

		fctx.ClearCookie(tokenCookie)

		return fctx.Status(http.StatusOK).JSON(result)
	}
}

func handleHealthFiber(core.AuthHandler) func(*core.RequestContext) error {
	return func(ctx *core.RequestContext) error {
		fctx := ctx.Request.(fiber.Ctx)
		return fctx.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
	}
}

func badBody(c fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(core.ErrorResponse{
		Error: msgInvalidBody,
		Code:  http.StatusBadRequest,
	})
}

// handleAuthError maps service errors to HTTP responses. Server-side
// failures never expose their cause.
func handleAuthError(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)
	if status >= http.StatusInternalServerError {
		c.Locals(localsError, err)
	}
	return c.Status(status).JSON(core.ErrorResponse{
		Error: publicMessage(err),
		Code:  status,
	})
}

// mapErrorToStatus maps error kinds to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrSignatureInvalid),
		errors.Is(err, core.ErrNotAuthenticated):
		return http.StatusUnauthorized

	case errors.Is(err, core.ErrBindingRejected):
		return http.StatusForbidden

	default:
		return http.StatusInternalServerError
	}
}

// publicErrors are safe to echo verbatim, most specific first.
var publicErrors = []error{
	core.ErrEmailRequired,
	core.ErrInvalidEmail,
	core.ErrAddressRequired,
	core.ErrSignatureRequired,
	core.ErrMessageRequired,
	core.ErrInvalidMessage,
	core.ErrInvalidNonce,
	core.ErrSignatureInvalid,
	core.ErrMissingAuthHeader,
	core.ErrInvalidToken,
	core.ErrSessionNotFound,
	core.ErrSessionExpired,
	core.ErrInvalidInput,
	core.ErrNotAuthenticated,
}

func publicMessage(err error) string {
	// Passkey and no-wallet rejections share a message so the response does
	// not reveal how the existing account signs in.
	switch {
	case errors.Is(err, core.ErrPasskeyProtected), errors.Is(err, core.ErrAccountExists):
		return msgRegistered
	case errors.Is(err, core.ErrWalletConflict):
		return msgConflict
	}

	for _, known := range publicErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return msgInternal
}
