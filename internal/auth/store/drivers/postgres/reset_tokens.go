package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
)

type resetTokensRepo struct {
	db dbtx
}

func (r *resetTokensRepo) MarkUsed(ctx context.Context, t domain.UsedResetToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO used_reset_tokens (jti, identity_id, used_at, expires_at)
		VALUES ($1, $2, $3, $4)`,
		t.JTI, t.IdentityID, t.UsedAt, t.ExpiresAt,
	)
	return mapError(err, "RESET_TOKEN_MARK_FAILED")
}

func (r *resetTokensRepo) IsUsed(ctx context.Context, jti string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM used_reset_tokens WHERE jti = $1)`, jti,
	).Scan(&ok)
	return ok, mapError(err, "RESET_TOKEN_CHECK_FAILED")
}

func (r *resetTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM used_reset_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapError(err, "RESET_TOKEN_PURGE_FAILED")
	}
	return tag.RowsAffected(), nil
}
