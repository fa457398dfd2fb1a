package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) Create(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, identity_id, token_hash, remember, created_at, last_seen, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.IdentityID, s.TokenHash, s.Remember,
		toUnix(s.CreatedAt), toUnix(s.LastSeen), toUnix(s.ExpiresAt),
	)
	return mapConflict(err)
}

func (r *sessionsRepo) GetByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	var (
		s                          domain.Session
		created, lastSeen, expires int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, identity_id, token_hash, remember, created_at, last_seen, expires_at
		FROM sessions WHERE token_hash = ?`, tokenHash,
	).Scan(&s.ID, &s.IdentityID, &s.TokenHash, &s.Remember, &created, &lastSeen, &expires)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.CreatedAt = fromUnix(created)
	s.LastSeen = fromUnix(lastSeen)
	s.ExpiresAt = fromUnix(expires)
	return s, nil
}

func (r *sessionsRepo) Touch(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_seen = ? WHERE id = ?`, toUnix(at), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *sessionsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteByIdentity(ctx context.Context, identityID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE identity_id = ?`, identityID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, toUnix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
