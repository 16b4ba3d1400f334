package pgx

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lborres/walletbind/core"
)

func (a *Adapter) CreateSession(ctx context.Context, session *core.Session) error {
	identityID, err := uuid.Parse(session.IdentityID)
	if err != nil {
		return core.ErrIdentityNotFound
	}

	q := `INSERT INTO sessions (id, identity_id, token_hash, ip_address, user_agent, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = a.pool.Exec(ctx, q,
		session.ID, identityID, session.TokenHash, session.IPAddress, session.UserAgent,
		session.ExpiresAt, session.CreatedAt, session.UpdatedAt,
	)
	return err
}

func (a *Adapter) GetSessionByHash(ctx context.Context, tokenHash string) (*core.Session, error) {
	q := `SELECT id, identity_id, token_hash, ip_address, user_agent, expires_at, created_at, updated_at
		FROM sessions WHERE token_hash = $1`

	session := &core.Session{}
	var identityID uuid.UUID
	err := a.pool.QueryRow(ctx, q, tokenHash).Scan(
		&session.ID, &identityID, &session.TokenHash, &session.IPAddress, &session.UserAgent,
		&session.ExpiresAt, &session.CreatedAt, &session.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	session.IdentityID = identityID.String()
	return session, nil
}

func (a *Adapter) DeleteSessionByHash(ctx context.Context, tokenHash string) error {
	tag, err := a.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrSessionNotFound
	}
	return nil
}

func (a *Adapter) DeleteIdentitySessions(ctx context.Context, identityID string) (int, error) {
	parsed, err := uuid.Parse(identityID)
	if err != nil {
		return 0, nil
	}
	tag, err := a.pool.Exec(ctx, `DELETE FROM sessions WHERE identity_id = $1`, parsed)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// DeleteExpiredSessions also removes expired transfer tokens.
func (a *Adapter) DeleteExpiredSessions(ctx context.Context) (int, error) {
	tag, err := a.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	if _, err := a.pool.Exec(ctx, `DELETE FROM transfer_tokens WHERE expires_at < now()`); err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
