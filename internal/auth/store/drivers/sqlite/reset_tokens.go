package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
)

type resetTokensRepo struct {
	db dbtx
}

func (r *resetTokensRepo) MarkUsed(ctx context.Context, t domain.UsedResetToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO used_reset_tokens (jti, identity_id, used_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		t.JTI, t.IdentityID, toUnix(t.UsedAt), toUnix(t.ExpiresAt),
	)
	return mapConflict(err)
}

func (r *resetTokensRepo) IsUsed(ctx context.Context, jti string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM used_reset_tokens WHERE jti = ?`, jti).Scan(&n)
	return n > 0, err
}

func (r *resetTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM used_reset_tokens WHERE expires_at <= ?`, toUnix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
