package fiber

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/lborres/walletbind/core"
	"github.com/lborres/walletbind/services"
)

type handlerFactory func(core.AuthHandler) func(*core.RequestContext) error

// factories maps the base endpoints' operation IDs to their fiber handlers.
var factories = map[string]handlerFactory{
	"authenticateWithWallet": handleAuthenticateFiber,
	"getSignableMessage":     handleSignableMessageFiber,
	"connectWallet":          handleConnectWalletFiber,
	"disconnectWallet":       handleDisconnectWalletFiber,
	"exchangeTransferToken":  handleExchangeTokenFiber,
	"getSession":             handleGetSessionFiber,
	"signOut":                handleSignOutFiber,
	"signOutEverywhere":      handleSignOutEverywhereFiber,
	"healthCheck":            handleHealthFiber,
}

type Adapter struct {
	app      *fiber.App
	registry *services.EndpointRegistry
	logger   *slog.Logger
}

var _ core.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App) *Adapter {
	return &Adapter{
		app:      app,
		registry: services.NewEndpointRegistry(),
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger used for server-side error reports.
func (a *Adapter) WithLogger(logger *slog.Logger) *Adapter {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Registry exposes the endpoint registry so extra endpoints can be added
// before RegisterRoutes runs.
func (a *Adapter) Registry() *services.EndpointRegistry {
	return a.registry
}

func (a *Adapter) RegisterRoutes(handler core.AuthHandler, basePath string) error {
	api := a.app.Group(basePath)

	for _, ep := range a.registry.Endpoints() {
		h := ep.Handler
		if h == nil {
			factory, ok := factories[ep.Metadata.OperationID]
			if !ok {
				return fmt.Errorf("no handler for %s %s (%s)", ep.Method, ep.Path, ep.Metadata.OperationID)
			}
			h = factory(handler)
		}

		route := a.wrap(handler, h)
		if ep.Metadata.Protected {
			api.Add([]string{ep.Method}, ep.Path, a.requireSession(handler), route)
		} else {
			api.Add([]string{ep.Method}, ep.Path, route)
		}
	}

	return nil
}

// RegisterMetrics mounts an http.Handler, typically promhttp, at path.
func (a *Adapter) RegisterMetrics(path string, h http.Handler) {
	a.app.Get(path, adaptor.HTTPHandler(h))
}

// wrap turns a framework-agnostic handler into a fiber handler, carrying
// whatever the session middleware resolved.
func (a *Adapter) wrap(handler core.AuthHandler, h func(*core.RequestContext) error) fiber.Handler {
	return func(c fiber.Ctx) error {
		rc := &core.RequestContext{Request: c, Auth: handler}
		if identity, ok := c.Locals(localsIdentity).(*core.Identity); ok {
			rc.Identity = identity
		}
		if session, ok := c.Locals(localsSession).(*core.Session); ok {
			rc.Session = session
		}

		err := h(rc)
		a.logServerError(c)
		return err
	}
}
