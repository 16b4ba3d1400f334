package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORTS (identity store operations)
// ============================================

// IdentityStore is the external user directory. Implementations must make
// CreateIdentity atomic per email and report a lost race as ErrIdentityExists.
type IdentityStore interface {
	FindIdentitiesByEmail(ctx context.Context, email string) ([]*Identity, error)
	GetIdentityByID(ctx context.Context, id string) (*Identity, error)
	CreateIdentity(ctx context.Context, email string) (*Identity, error)
	UpdatePreferences(ctx context.Context, id string, prefs Preferences) (*Identity, error)

	CreateTransferToken(ctx context.Context, identityID string) (*TransferToken, error)
	// ConsumeTransferToken invalidates the token identified by secretHash.
	// It returns ErrInvalidToken when the token is unknown, expired or spent.
	ConsumeTransferToken(ctx context.Context, identityID, secretHash string) error
}

// SessionStorage defines session-related database operations
type SessionStorage interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByHash(ctx context.Context, tokenHash string) (*Session, error)
	DeleteSessionByHash(ctx context.Context, tokenHash string) error
	DeleteIdentitySessions(ctx context.Context, identityID string) (int, error)
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

// ============================================
// CACHE PORT
// ============================================

// Cache defines session caching operations
type Cache interface {
	Get(tokenHash string) (*Session, error)
	Set(tokenHash string, session *Session) error
	Delete(tokenHash string) error
	Clear() error
}

// CacheWithStats extends Cache with statistics tracking
type CacheWithStats interface {
	Cache
	Stats() CacheStats
}

// IdentityCache is implemented by caches that can drop one identity's
// sessions. Caches without it are cleared instead.
type IdentityCache interface {
	DeleteIdentity(identityID string) int
}

// CacheConfig configures cache behavior
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// ============================================
// AUTH HANDLER (for HTTP adapters)
// ============================================

// AuthHandler provides wallet authentication operations for HTTP adapters
type AuthHandler interface {
	Authenticate(ctx context.Context, input AuthenticateInput) (*AuthenticateResult, error)
	ExchangeToken(ctx context.Context, input ExchangeInput, ipAddress, userAgent string) (*CreateSessionResult, error)
	GetSession(ctx context.Context, token string) (*SessionData, error)
	SignOut(ctx context.Context, token string) error
	SignOutEverywhere(ctx context.Context, identity *Identity) (*SignOutEverywhereResult, error)

	ConnectWallet(ctx context.Context, identity *Identity, input ConnectWalletInput) (*ConnectWalletResult, error)
	DisconnectWallet(ctx context.Context, identity *Identity) (*DisconnectWalletResult, error)

	SignableMessage(nonce string) (string, error)
}

// ============================================
// HTTP PORT
// ============================================

type HTTPAdapter interface {
	RegisterRoutes(handler AuthHandler, basePath string) error
}
