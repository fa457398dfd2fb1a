package postgres

import (
	"context"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
)

type followsRepo struct {
	db dbtx
}

func (r *followsRepo) Follow(ctx context.Context, f domain.Follow) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO followers (follower_id, followed_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		f.FollowerID, f.FollowedID, f.CreatedAt,
	)
	return mapError(err, "FOLLOW_CREATE_FAILED")
}

func (r *followsRepo) Unfollow(ctx context.Context, followerID, followedID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM followers WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID,
	)
	return mapError(err, "FOLLOW_DELETE_FAILED")
}

func (r *followsRepo) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM followers WHERE follower_id = $1 AND followed_id = $2)`,
		followerID, followedID,
	).Scan(&ok)
	return ok, mapError(err, "FOLLOW_CHECK_FAILED")
}

func (r *followsRepo) Followers(ctx context.Context, userID string, offset, limit int) ([]domain.Identity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+followUserColumns+`
		FROM users u JOIN followers f ON f.follower_id = u.id
		WHERE f.followed_id = $1
		ORDER BY u.username
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, mapError(err, "FOLLOWERS_LIST_FAILED")
	}
	users, err := collectUsers(rows)
	return users, mapError(err, "FOLLOWERS_LIST_FAILED")
}

func (r *followsRepo) Following(ctx context.Context, userID string, offset, limit int) ([]domain.Identity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+followUserColumns+`
		FROM users u JOIN followers f ON f.followed_id = u.id
		WHERE f.follower_id = $1
		ORDER BY u.username
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, mapError(err, "FOLLOWING_LIST_FAILED")
	}
	users, err := collectUsers(rows)
	return users, mapError(err, "FOLLOWING_LIST_FAILED")
}

func (r *followsRepo) CountFollowers(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM followers WHERE followed_id = $1`, userID).Scan(&n)
	return n, mapError(err, "FOLLOWERS_COUNT_FAILED")
}

func (r *followsRepo) CountFollowing(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM followers WHERE follower_id = $1`, userID).Scan(&n)
	return n, mapError(err, "FOLLOWING_COUNT_FAILED")
}
