package services

import (
	"context"
	"errors"
	"time"

	"github.com/lborres/walletbind/core"
	"github.com/lborres/walletbind/pkg/crypto"
)

type SessionManager struct {
	config  core.SessionConfig
	storage core.SessionStorage
	cache   core.Cache // optional, can be nil if caching is disabled
}

func NewSessionManager(config core.SessionConfig, storage core.SessionStorage, cache core.Cache) *SessionManager {
	if config.MaxAge <= 0 {
		config = core.DefaultSessionConfig()
	}
	return &SessionManager{config: config, storage: storage, cache: cache}
}

func (sm *SessionManager) Create(ctx context.Context, identityID, ip, userAgent string) (*core.CreateSessionResult, error) {
	pair, err := crypto.GenerateHashedToken(crypto.DefaultTokenLength)
	if err != nil {
		return nil, err
	}

	sessionID, err := crypto.NewID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &core.Session{
		ID:         sessionID,
		IdentityID: identityID,
		TokenHash:  pair.Hash,
		IPAddress:  ip,
		UserAgent:  userAgent,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(sm.config.MaxAge),
	}

	if err := sm.storage.CreateSession(ctx, session); err != nil {
		return nil, storeError("create session", err)
	}

	// We don't fail the request if caching fails
	if sm.cache != nil {
		_ = sm.cache.Set(pair.Hash, session)
	}

	return &core.CreateSessionResult{Session: session, Token: pair.Token}, nil
}

func (sm *SessionManager) Verify(ctx context.Context, token string) (*core.Session, error) {
	if token == "" {
		return nil, core.ErrInvalidToken
	}

	tokenHash := crypto.HashToken(token)

	if sm.cache != nil {
		if session, err := sm.cache.Get(tokenHash); err == nil {
			if time.Now().After(session.ExpiresAt) {
				_ = sm.cache.Delete(tokenHash)
				return nil, core.ErrSessionExpired
			}
			return session, nil
		}
	}

	session, err := sm.storage.GetSessionByHash(ctx, tokenHash)
	if errors.Is(err, core.ErrSessionNotFound) || (err == nil && session == nil) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, storeError("get session", err)
	}

	if time.Now().After(session.ExpiresAt) {
		_ = sm.storage.DeleteSessionByHash(ctx, tokenHash)
		return nil, core.ErrSessionExpired
	}

	if sm.cache != nil {
		_ = sm.cache.Set(tokenHash, session)
	}

	return session, nil
}

// Destroy removes the session behind token. Removing an unknown session is
// not an error.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return core.ErrInvalidToken
	}

	tokenHash := crypto.HashToken(token)

	if sm.cache != nil {
		_ = sm.cache.Delete(tokenHash)
	}

	err := sm.storage.DeleteSessionByHash(ctx, tokenHash)
	if err != nil && !errors.Is(err, core.ErrSessionNotFound) {
		return storeError("delete session", err)
	}
	return nil
}

func (sm *SessionManager) DestroyIdentitySessions(ctx context.Context, identityID string) (int, error) {
	if identityID == "" {
		return 0, core.ErrIdentityNotFound
	}

	count, err := sm.storage.DeleteIdentitySessions(ctx, identityID)
	if err != nil {
		return 0, storeError("delete identity sessions", err)
	}

	switch c := sm.cache.(type) {
	case nil:
	case core.IdentityCache:
		c.DeleteIdentity(identityID)
	default:
		// Keyed by token hash only; dropping everything is the only way.
		if count > 0 {
			_ = c.Clear()
		}
	}

	return count, nil
}

// SweepExpired deletes sessions past their expiry from storage.
func (sm *SessionManager) SweepExpired(ctx context.Context) (int, error) {
	count, err := sm.storage.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, storeError("delete expired sessions", err)
	}
	return count, nil
}
