package sqlite

import (
	"context"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
)

type followsRepo struct {
	db dbtx
}

func (r *followsRepo) Follow(ctx context.Context, f domain.Follow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO followers (follower_id, followed_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		f.FollowerID, f.FollowedID, toUnix(f.CreatedAt),
	)
	return err
}

func (r *followsRepo) Unfollow(ctx context.Context, followerID, followedID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM followers WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID,
	)
	return err
}

func (r *followsRepo) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM followers WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID,
	).Scan(&n)
	return n > 0, err
}

func (r *followsRepo) Followers(ctx context.Context, userID string, offset, limit int) ([]domain.Identity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+prefixed("u", userColumns)+`
		FROM users u JOIN followers f ON f.follower_id = u.id
		WHERE f.followed_id = ?
		ORDER BY u.username
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *followsRepo) Following(ctx context.Context, userID string, offset, limit int) ([]domain.Identity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+prefixed("u", userColumns)+`
		FROM users u JOIN followers f ON f.followed_id = u.id
		WHERE f.follower_id = ?
		ORDER BY u.username
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *followsRepo) CountFollowers(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM followers WHERE followed_id = ?`, userID).Scan(&n)
	return n, err
}

func (r *followsRepo) CountFollowing(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM followers WHERE follower_id = ?`, userID).Scan(&n)
	return n, err
}
