package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lborres/walletbind/core"
)

// DefaultTransferTokenTTL bounds how long a transfer token can be redeemed.
const DefaultTransferTokenTTL = 5 * time.Minute

const uniqueViolation = "23505"

// Adapter implements core.IdentityStore and core.SessionStorage on Postgres.
type Adapter struct {
	pool     *pgxpool.Pool
	tokenTTL time.Duration
}

var (
	_ core.IdentityStore  = (*Adapter)(nil)
	_ core.SessionStorage = (*Adapter)(nil)
)

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool:     pool,
		tokenTTL: DefaultTransferTokenTTL,
	}
}

// WithTransferTokenTTL overrides the transfer token lifetime. Non-positive
// values are ignored.
func (a *Adapter) WithTransferTokenTTL(ttl time.Duration) *Adapter {
	if ttl > 0 {
		a.tokenTTL = ttl
	}
	return a
}

// Connect opens a pool and checks that the database answers.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
