package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, password_hash, about_me, last_seen,
	token, token_expiration, last_message_read_time, created_at, updated_at`

const followUserColumns = `u.id, u.username, u.email, u.password_hash, u.about_me, u.last_seen,
	u.token, u.token_expiration, u.last_message_read_time, u.created_at, u.updated_at`

type usersRepo struct {
	db dbtx
}

func scanUser(row pgx.Row) (domain.Identity, error) {
	var u domain.Identity
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AboutMe, &u.LastSeen,
		&u.Token, &u.TokenExpiration, &u.LastMessageReadTime, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func collectUsers(rows pgx.Rows) ([]domain.Identity, error) {
	defer rows.Close()
	var out []domain.Identity
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) getOne(ctx context.Context, column string, arg any) (domain.Identity, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, arg))
	if err != nil {
		return domain.Identity{}, mapError(err, "USER_GET_FAILED")
	}
	return u, nil
}

func (r *usersRepo) Create(ctx context.Context, u domain.Identity) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.AboutMe, u.LastSeen,
		u.Token, u.TokenExpiration, u.LastMessageReadTime, u.CreatedAt, u.UpdatedAt,
	)
	return mapError(err, "USER_CREATE_FAILED")
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (domain.Identity, error) {
	return r.getOne(ctx, "id", id)
}

func (r *usersRepo) GetByIDForUpdate(ctx context.Context, id string) (domain.Identity, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.Identity{}, mapError(err, "USER_GET_FAILED")
	}
	return u, nil
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (domain.Identity, error) {
	return r.getOne(ctx, "username", username)
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (domain.Identity, error) {
	return r.getOne(ctx, "email", email)
}

func (r *usersRepo) GetByToken(ctx context.Context, token string) (domain.Identity, error) {
	return r.getOne(ctx, "token", token)
}

func (r *usersRepo) List(ctx context.Context, offset, limit int) ([]domain.Identity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY username
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, mapError(err, "USER_LIST_FAILED")
	}
	users, err := collectUsers(rows)
	return users, mapError(err, "USER_LIST_FAILED")
}

func (r *usersRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, mapError(err, "USER_COUNT_FAILED")
}

func (r *usersRepo) Update(ctx context.Context, u domain.Identity) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET username = $1, email = $2, about_me = $3, updated_at = $4
		WHERE id = $5`,
		u.Username, u.Email, u.AboutMe, time.Now().UTC(), u.ID,
	)
	if err != nil {
		return mapError(err, "USER_UPDATE_FAILED")
	}
	return requireAffected(tag)
}

func (r *usersRepo) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET last_seen = $1 WHERE id = $2`, at, id)
	if err != nil {
		return mapError(err, "USER_TOUCH_FAILED")
	}
	return requireAffected(tag)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		hash, time.Now().UTC(), id,
	)
	if err != nil {
		return mapError(err, "USER_PASSWORD_UPDATE_FAILED")
	}
	return requireAffected(tag)
}

func (r *usersRepo) SetToken(ctx context.Context, id string, token string, expiresAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET token = $1, token_expiration = $2 WHERE id = $3`,
		token, expiresAt, id,
	)
	if err != nil {
		return mapError(err, "USER_TOKEN_SET_FAILED")
	}
	return requireAffected(tag)
}

func (r *usersRepo) ClearToken(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET token = NULL, token_expiration = NULL WHERE id = $1`, id,
	)
	if err != nil {
		return mapError(err, "USER_TOKEN_CLEAR_FAILED")
	}
	return requireAffected(tag)
}
