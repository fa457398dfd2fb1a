// Package postgres is the server-grade store driver backed by a pgx
// connection pool.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/store"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// dbtx is satisfied by the pool, a pgx.Tx and pgxmock.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the subset of *pgxpool.Pool the store needs.
type Pool interface {
	dbtx
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type Store struct {
	pool        Pool
	databaseURL string
}

// ConnectOptions tune the startup connection attempts.
type ConnectOptions struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

var DefaultConnectOptions = ConnectOptions{MaxRetries: 5, BaseDelay: 500 * time.Millisecond}

// NewStore connects to databaseURL, retrying with exponential backoff until
// the server answers a ping. A database container started alongside the
// service usually needs a few seconds before it accepts connections.
func NewStore(ctx context.Context, databaseURL string, opts ConnectOptions) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}

	var pool *pgxpool.Pool
	backoff := retry.WithMaxRetries(opts.MaxRetries, retry.NewExponential(opts.BaseDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return retry.RetryableError(err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return retry.RetryableError(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("host", cfg.ConnConfig.Host).
			With("database", cfg.ConnConfig.Database).
			Wrap(err)
	}

	return &Store{pool: pool, databaseURL: databaseURL}, nil
}

// NewStoreWithPool wraps an existing pool. databaseURL is only needed for
// ApplyMigrations and may be empty otherwise.
func NewStoreWithPool(pool Pool, databaseURL string) *Store {
	return &Store{pool: pool, databaseURL: databaseURL}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return oops.Code("DB_PING_FAILED").Wrap(err)
	}
	return nil
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	return newTx(ctx, tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // rollback after commit is a no-op
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

func (s *Store) Users() store.Users             { return &usersRepo{db: s.pool} }
func (s *Store) Sessions() store.Sessions       { return &sessionsRepo{db: s.pool} }
func (s *Store) Follows() store.Follows         { return &followsRepo{db: s.pool} }
func (s *Store) ResetTokens() store.ResetTokens { return &resetTokensRepo{db: s.pool} }

// constraintFields maps unique constraint names to the column reported in a
// ConflictError.
var constraintFields = map[string]string{
	"users_username_key":      "username",
	"users_email_key":         "email",
	"users_token_key":         "token",
	"sessions_token_hash_key": "token_hash",
	"used_reset_tokens_pkey":  "jti",
}

// mapError converts pgx errors into store sentinels, wrapping anything else
// with an oops code. The errors.Is chain is preserved either way.
func mapError(err error, code string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return &store.ConflictError{Field: field}
	}
	return oops.Code(code).Wrap(err)
}

func requireAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
