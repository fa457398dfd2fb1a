package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) Create(ctx context.Context, s domain.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, identity_id, token_hash, remember, created_at, last_seen, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.IdentityID, s.TokenHash, s.Remember, s.CreatedAt, s.LastSeen, s.ExpiresAt,
	)
	return mapError(err, "SESSION_CREATE_FAILED")
}

func (r *sessionsRepo) GetByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRow(ctx, `
		SELECT id, identity_id, token_hash, remember, created_at, last_seen, expires_at
		FROM sessions WHERE token_hash = $1`, tokenHash,
	).Scan(&s.ID, &s.IdentityID, &s.TokenHash, &s.Remember, &s.CreatedAt, &s.LastSeen, &s.ExpiresAt)
	if err != nil {
		return domain.Session{}, mapError(err, "SESSION_GET_BY_TOKEN_FAILED")
	}
	return s, nil
}

func (r *sessionsRepo) Touch(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE sessions SET last_seen = $1 WHERE id = $2`, at, id)
	if err != nil {
		return mapError(err, "SESSION_TOUCH_FAILED")
	}
	return requireAffected(tag)
}

func (r *sessionsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return mapError(err, "SESSION_DELETE_FAILED")
}

func (r *sessionsRepo) DeleteByIdentity(ctx context.Context, identityID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE identity_id = $1`, identityID)
	if err != nil {
		return 0, mapError(err, "SESSION_DELETE_BY_IDENTITY_FAILED")
	}
	return tag.RowsAffected(), nil
}

func (r *sessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapError(err, "SESSION_DELETE_EXPIRED_FAILED")
	}
	return tag.RowsAffected(), nil
}
