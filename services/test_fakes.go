package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lborres/walletbind/core"
	"github.com/lborres/walletbind/pkg/crypto"
)

// FakeIdentityStore is a test-only fake implementing core.IdentityStore.
// Emails are unique unless seeded with Seed; error fields inject failures.
type FakeIdentityStore struct {
	mu         sync.Mutex
	identities map[string]*core.Identity
	tokens     map[string]*fakeTransferToken

	TokenTTL time.Duration

	FindErr    error
	GetErr     error
	CreateErr  error
	UpdateErr  error
	TokenErr   error
	ConsumeErr error

	// BeforeCreate runs before the uniqueness check in CreateIdentity, with
	// the lock released. Tests use it to let a competing request win.
	BeforeCreate func(email string)

	Creates int
	Updates int
}

type fakeTransferToken struct {
	identityID string
	expiresAt  time.Time
}

var _ core.IdentityStore = (*FakeIdentityStore)(nil)

func NewFakeIdentityStore() *FakeIdentityStore {
	return &FakeIdentityStore{
		identities: make(map[string]*core.Identity),
		tokens:     make(map[string]*fakeTransferToken),
		TokenTTL:   5 * time.Minute,
	}
}

// Seed inserts identity as-is, bypassing the email uniqueness check.
func (f *FakeIdentityStore) Seed(identity *core.Identity) *core.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	identity.Email = strings.ToLower(identity.Email)
	now := time.Now()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
		identity.UpdatedAt = now
	}
	f.identities[identity.ID] = copyIdentity(identity)
	return copyIdentity(identity)
}

// Identity returns a copy of the stored identity, or nil.
func (f *FakeIdentityStore) Identity(id string) *core.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.identities[id]; ok {
		return copyIdentity(i)
	}
	return nil
}

func (f *FakeIdentityStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.identities)
}

func (f *FakeIdentityStore) FindIdentitiesByEmail(_ context.Context, email string) ([]*core.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	return f.findLocked(email), nil
}

func (f *FakeIdentityStore) findLocked(email string) []*core.Identity {
	var found []*core.Identity
	for _, i := range f.identities {
		if strings.EqualFold(i.Email, email) {
			found = append(found, copyIdentity(i))
		}
	}
	sort.Slice(found, func(a, b int) bool { return found[a].CreatedAt.Before(found[b].CreatedAt) })
	return found
}

func (f *FakeIdentityStore) GetIdentityByID(_ context.Context, id string) (*core.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	i, ok := f.identities[id]
	if !ok {
		return nil, core.ErrIdentityNotFound
	}
	return copyIdentity(i), nil
}

func (f *FakeIdentityStore) CreateIdentity(_ context.Context, email string) (*core.Identity, error) {
	if f.BeforeCreate != nil {
		f.BeforeCreate(email)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if len(f.findLocked(email)) > 0 {
		return nil, core.ErrIdentityExists
	}

	now := time.Now()
	identity := &core.Identity{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.identities[identity.ID] = identity
	f.Creates++
	return copyIdentity(identity), nil
}

func (f *FakeIdentityStore) UpdatePreferences(_ context.Context, id string, prefs core.Preferences) (*core.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	i, ok := f.identities[id]
	if !ok {
		return nil, core.ErrIdentityNotFound
	}
	i.Preferences = prefs
	i.UpdatedAt = time.Now()
	f.Updates++
	return copyIdentity(i), nil
}

func (f *FakeIdentityStore) CreateTransferToken(_ context.Context, identityID string) (*core.TransferToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TokenErr != nil {
		return nil, f.TokenErr
	}
	if _, ok := f.identities[identityID]; !ok {
		return nil, core.ErrIdentityNotFound
	}

	pair, err := crypto.GenerateHashedToken(crypto.DefaultTokenLength)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(f.TokenTTL)
	f.tokens[pair.Hash] = &fakeTransferToken{identityID: identityID, expiresAt: expiresAt}

	return &core.TransferToken{IdentityID: identityID, Secret: pair.Token, ExpiresAt: expiresAt}, nil
}

func (f *FakeIdentityStore) ConsumeTransferToken(_ context.Context, identityID, secretHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConsumeErr != nil {
		return f.ConsumeErr
	}
	t, ok := f.tokens[secretHash]
	if !ok || t.identityID != identityID {
		return core.ErrInvalidToken
	}
	delete(f.tokens, secretHash)
	if time.Now().After(t.expiresAt) {
		return core.ErrInvalidToken
	}
	return nil
}

func copyIdentity(i *core.Identity) *core.Identity {
	c := *i
	if w := i.Preferences.WalletAddress; w != nil {
		v := *w
		c.Preferences.WalletAddress = &v
	}
	return &c
}

// FakeSessionStorage is a test-only fake implementing core.SessionStorage.
// It stores sessions in a map and exposes error fields for behavior injection.
type FakeSessionStorage struct {
	sessions  map[string]*core.Session
	mu        sync.RWMutex
	CreateErr error
	GetErr    error
	DeleteErr error
}

var _ core.SessionStorage = (*FakeSessionStorage)(nil)

func NewFakeSessionStorage() *FakeSessionStorage {
	return &FakeSessionStorage{
		sessions: make(map[string]*core.Session),
	}
}

func (f *FakeSessionStorage) CreateSession(_ context.Context, s *core.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		return f.CreateErr
	}

	f.sessions[s.TokenHash] = s
	return nil
}

func (f *FakeSessionStorage) GetSessionByHash(_ context.Context, tokenHash string) (*core.Session, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	s, ok := f.sessions[tokenHash]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return s, nil
}

func (f *FakeSessionStorage) DeleteSessionByHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if _, ok := f.sessions[tokenHash]; !ok {
		return core.ErrSessionNotFound
	}
	delete(f.sessions, tokenHash)
	return nil
}

func (f *FakeSessionStorage) DeleteIdentitySessions(_ context.Context, identityID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for k, s := range f.sessions {
		if s.IdentityID == identityID {
			delete(f.sessions, k)
			count++
		}
	}
	return count, nil
}

func (f *FakeSessionStorage) DeleteExpiredSessions(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return 0, f.DeleteErr
	}
	now := time.Now()
	count := 0
	for k, s := range f.sessions {
		if now.After(s.ExpiresAt) {
			delete(f.sessions, k)
			count++
		}
	}
	return count, nil
}

func (f *FakeSessionStorage) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.sessions)
}

// FakeCache is a test-only fake implementing core.Cache.
// It stores sessions in a map and exposes error fields for behavior injection.
type FakeCache struct {
	cache    map[string]*core.Session
	mu       sync.Mutex
	getErr   error
	setErr   error
	delErr   error
	clearErr error
	hits     int
	misses   int
}

var _ core.CacheWithStats = (*FakeCache)(nil)

func NewFakeCache() *FakeCache {
	return &FakeCache{
		cache: make(map[string]*core.Session),
	}
}

func (f *FakeCache) Get(tokenHash string) (*core.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}

	s, ok := f.cache[tokenHash]
	if !ok {
		f.misses++
		return nil, core.ErrCacheNotFound
	}

	f.hits++
	return s, nil
}

func (f *FakeCache) Set(tokenHash string, session *core.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return f.setErr
	}

	f.cache[tokenHash] = session
	return nil
}

func (f *FakeCache) Delete(tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.delErr != nil {
		return f.delErr
	}

	delete(f.cache, tokenHash)
	return nil
}

func (f *FakeCache) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.clearErr != nil {
		return f.clearErr
	}

	f.cache = make(map[string]*core.Session)
	return nil
}

func (f *FakeCache) Stats() core.CacheStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	return core.CacheStats{
		Hits:   int64(f.hits),
		Misses: int64(f.misses),
		Size:   len(f.cache),
	}
}

// Test helper methods
func (f *FakeCache) SetGetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

func (f *FakeCache) SetSetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setErr = err
}

func (f *FakeCache) SetDeleteError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delErr = err
}

func (f *FakeCache) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cache)
}

// fakeFailingCache is a cache whose writes always fail.
type fakeFailingCache struct{}

func (f *fakeFailingCache) Get(tokenHash string) (*core.Session, error) {
	return nil, core.ErrCacheNotFound
}
func (f *fakeFailingCache) Set(tokenHash string, session *core.Session) error {
	return errors.New("cache set failed")
}
func (f *fakeFailingCache) Delete(tokenHash string) error {
	return errors.New("cache delete failed")
}
func (f *fakeFailingCache) Clear() error {
	return errors.New("cache clear failed")
}
