package walletbind

import (
	"log/slog"
	"time"

	"github.com/lborres/walletbind/core"
	"github.com/lborres/walletbind/pkg/cache"
	"github.com/lborres/walletbind/pkg/metrics"
	"github.com/lborres/walletbind/pkg/wallet"
	"github.com/lborres/walletbind/services"
)

// interfaces
type (
	IdentityStore  = core.IdentityStore
	SessionStorage = core.SessionStorage
	Cache          = core.Cache
	HTTPAdapter    = core.HTTPAdapter
	AuthHandler    = core.AuthHandler
)

// structs
type (
	Service       = services.WalletAuthService
	SessionConfig = core.SessionConfig
	CacheConfig   = core.CacheConfig
	Identity      = core.Identity
	Preferences   = core.Preferences
	Session       = core.Session
	SessionData   = core.SessionData
	CacheStats    = core.CacheStats
)

const defaultBasePath = "/api/auth"

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryCache     = cache.NewInMemoryCache
	DefaultSessionConfig = core.DefaultSessionConfig
	Canonicalize         = wallet.Canonicalize
)

var (
	ErrInvalidInput     = core.ErrInvalidInput
	ErrSignatureInvalid = core.ErrSignatureInvalid
	ErrNotAuthenticated = core.ErrNotAuthenticated
	ErrBindingRejected  = core.ErrBindingRejected
	ErrStoreUnavailable = core.ErrStoreUnavailable
	ErrMisconfigured    = core.ErrMisconfigured
)

var (
	ErrPasskeyProtected = core.ErrPasskeyProtected
	ErrAccountExists    = core.ErrAccountExists
	ErrWalletConflict   = core.ErrWalletConflict
)

var (
	ErrIdentityStoreRequired  = core.ErrIdentityStoreRequired
	ErrSessionStorageRequired = core.ErrSessionStorageRequired
	ErrHTTPAdapterRequired    = core.ErrHTTPAdapterRequired
)

type Config struct {
	IdentityStore  IdentityStore
	SessionStorage SessionStorage
	HTTP           HTTPAdapter

	// Cache defaults to an in-memory cache unless DisableCache is set.
	Cache        Cache
	DisableCache bool

	SessionConfig *SessionConfig
	MessagePrefix string
	BasePath      string

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// New wires the wallet auth service and registers its routes on the HTTP
// adapter.
func New(config Config) (*Service, error) {
	if config.IdentityStore == nil {
		return nil, ErrIdentityStoreRequired
	}
	if config.SessionStorage == nil {
		return nil, ErrSessionStorageRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}

	// Set Defaults

	cacheAdapter := config.Cache
	if cacheAdapter == nil && !config.DisableCache {
		cacheAdapter = NewInMemoryCache(CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 500,
		})
	}

	sessionConfig := DefaultSessionConfig()
	if config.SessionConfig != nil {
		sessionConfig = *config.SessionConfig
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	service := services.NewWalletAuthService(services.WalletAuthConfig{
		Store:    config.IdentityStore,
		Sessions: services.NewSessionManager(sessionConfig, config.SessionStorage, cacheAdapter),
		Verifier: wallet.NewVerifier(wallet.Config{MessagePrefix: config.MessagePrefix}),
		Logger:   logger,
		Metrics:  config.Metrics,
	})

	if err := config.HTTP.RegisterRoutes(service, basePath); err != nil {
		return nil, err
	}

	return service, nil
}
