package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// ConflictError reports which unique column rejected a write. It unwraps to
// ErrAlreadyExists so callers that only care about the kind can use errors.Is.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string { return "store: already exists: " + e.Field }
func (e *ConflictError) Unwrap() error { return ErrAlreadyExists }

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Repositories hang off the store (or a Tx) so a transaction
// can never be opened from inside another one.
type Store interface {
	Users() Users
	Sessions() Sessions
	Follows() Follows
	ResetTokens() ResetTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// Create inserts a new identity. Duplicate username or email yields a
	// *ConflictError naming the column.
	Create(ctx context.Context, u domain.Identity) error

	GetByID(ctx context.Context, id string) (domain.Identity, error)

	// GetByIDForUpdate reads an identity and locks its row until the
	// enclosing transaction ends. Call it on a Tx's repo.
	GetByIDForUpdate(ctx context.Context, id string) (domain.Identity, error)

	GetByUsername(ctx context.Context, username string) (domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (domain.Identity, error)

	// GetByToken looks up the identity currently holding the API token. It
	// does not check expiry.
	GetByToken(ctx context.Context, token string) (domain.Identity, error)

	// List returns identities ordered by username.
	List(ctx context.Context, offset, limit int) ([]domain.Identity, error)
	Count(ctx context.Context) (int, error)

	// Update writes username, email and about_me and bumps updated_at.
	Update(ctx context.Context, u domain.Identity) error

	// TouchLastSeen sets last_seen and nothing else.
	TouchLastSeen(ctx context.Context, id string, at time.Time) error

	UpdatePasswordHash(ctx context.Context, id string, hash string) error

	// SetToken stores the API token and its expiry together.
	SetToken(ctx context.Context, id string, token string, expiresAt time.Time) error

	// ClearToken nulls both token columns.
	ClearToken(ctx context.Context, id string) error
}

type Sessions interface {
	Create(ctx context.Context, s domain.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error)

	// Touch bumps last_seen.
	Touch(ctx context.Context, id string, at time.Time) error

	Delete(ctx context.Context, id string) error

	// DeleteByIdentity drops every session of one identity (used after a
	// password reset).
	DeleteByIdentity(ctx context.Context, identityID string) (int64, error)

	// DeleteExpired removes sessions whose expires_at is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Follows interface {
	// Follow is idempotent: following twice keeps one edge.
	Follow(ctx context.Context, f domain.Follow) error

	// Unfollow is idempotent: removing a missing edge is not an error.
	Unfollow(ctx context.Context, followerID, followedID string) error

	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)

	// Followers lists identities following userID, ordered by username.
	Followers(ctx context.Context, userID string, offset, limit int) ([]domain.Identity, error)

	// Following lists identities userID follows, ordered by username.
	Following(ctx context.Context, userID string, offset, limit int) ([]domain.Identity, error)

	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
}

type ResetTokens interface {
	// MarkUsed records a redeemed jti. A jti already present yields a
	// *ConflictError{Field: "jti"}.
	MarkUsed(ctx context.Context, t domain.UsedResetToken) error

	IsUsed(ctx context.Context, jti string) (bool, error)

	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
