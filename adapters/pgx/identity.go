package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lborres/walletbind/core"
	"github.com/lborres/walletbind/pkg/crypto"
)

const identityColumns = `id, email, preferences, created_at, updated_at`

func scanIdentity(row pgx.Row) (*core.Identity, error) {
	identity := &core.Identity{}
	var id uuid.UUID
	var prefs []byte
	if err := row.Scan(&id, &identity.Email, &prefs, &identity.CreatedAt, &identity.UpdatedAt); err != nil {
		return nil, err
	}
	identity.ID = id.String()
	if err := json.Unmarshal(prefs, &identity.Preferences); err != nil {
		return nil, fmt.Errorf("identity %s: %w", identity.ID, err)
	}
	return identity, nil
}

func (a *Adapter) FindIdentitiesByEmail(ctx context.Context, email string) ([]*core.Identity, error) {
	q := `SELECT ` + identityColumns + ` FROM identities WHERE lower(email) = $1 ORDER BY created_at`

	rows, err := a.pool.Query(ctx, q, strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var identities []*core.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

func (a *Adapter) GetIdentityByID(ctx context.Context, id string) (*core.Identity, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, core.ErrIdentityNotFound
	}

	q := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	identity, err := scanIdentity(a.pool.QueryRow(ctx, q, parsed))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrIdentityNotFound
	}
	return identity, err
}

// CreateIdentity inserts an identity with empty preferences. The unique index
// on lower(email) makes a concurrent insert fail with ErrIdentityExists.
func (a *Adapter) CreateIdentity(ctx context.Context, email string) (*core.Identity, error) {
	q := `INSERT INTO identities (id, email, preferences) VALUES ($1, $2, '{}'::jsonb) RETURNING ` + identityColumns

	identity, err := scanIdentity(a.pool.QueryRow(ctx, q, uuid.New(), strings.ToLower(email)))
	if isUniqueViolation(err) {
		return nil, core.ErrIdentityExists
	}
	return identity, err
}

func (a *Adapter) UpdatePreferences(ctx context.Context, id string, prefs core.Preferences) (*core.Identity, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, core.ErrIdentityNotFound
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preferences: %w", err)
	}

	q := `UPDATE identities SET preferences = $2, updated_at = now() WHERE id = $1 RETURNING ` + identityColumns
	identity, err := scanIdentity(a.pool.QueryRow(ctx, q, parsed, raw))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrIdentityNotFound
	}
	return identity, err
}

// CreateTransferToken stores the hash of a fresh secret and returns the
// secret itself, which is never stored.
func (a *Adapter) CreateTransferToken(ctx context.Context, identityID string) (*core.TransferToken, error) {
	parsed, err := uuid.Parse(identityID)
	if err != nil {
		return nil, core.ErrIdentityNotFound
	}

	pair, err := crypto.GenerateHashedToken(crypto.DefaultTokenLength)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(a.tokenTTL)

	q := `INSERT INTO transfer_tokens (secret_hash, identity_id, expires_at) VALUES ($1, $2, $3)`
	if _, err := a.pool.Exec(ctx, q, pair.Hash, parsed, expiresAt); err != nil {
		return nil, err
	}

	return &core.TransferToken{IdentityID: identityID, Secret: pair.Token, ExpiresAt: expiresAt}, nil
}

// ConsumeTransferToken deletes the token in the same statement that reads
// it, so a token can be redeemed once.
func (a *Adapter) ConsumeTransferToken(ctx context.Context, identityID, secretHash string) error {
	parsed, err := uuid.Parse(identityID)
	if err != nil {
		return core.ErrInvalidToken
	}

	q := `DELETE FROM transfer_tokens WHERE secret_hash = $1 AND identity_id = $2 RETURNING expires_at`
	var expiresAt time.Time
	err = a.pool.QueryRow(ctx, q, secretHash, parsed).Scan(&expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrInvalidToken
	}
	if err != nil {
		return err
	}
	if time.Now().After(expiresAt) {
		return core.ErrInvalidToken
	}
	return nil
}
