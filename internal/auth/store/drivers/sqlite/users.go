package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
)

const userColumns = `id, username, email, password_hash, about_me, last_seen,
	token, token_expiration, last_message_read_time, created_at, updated_at`

type usersRepo struct {
	db dbtx
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.Identity, error) {
	var (
		u                          domain.Identity
		lastSeen, created, updated int64
		token                      sql.NullString
		tokenExp, lastMessageRead  sql.NullInt64
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AboutMe, &lastSeen,
		&token, &tokenExp, &lastMessageRead, &created, &updated,
	)
	if err != nil {
		return domain.Identity{}, err
	}
	u.LastSeen = fromUnix(lastSeen)
	u.Token = fromNullString(token)
	u.TokenExpiration = fromNullUnix(tokenExp)
	u.LastMessageReadTime = fromNullUnix(lastMessageRead)
	u.CreatedAt = fromUnix(created)
	u.UpdatedAt = fromUnix(updated)
	return u, nil
}

func (r *usersRepo) getOne(ctx context.Context, where string, arg any) (domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = ?`, arg)
	u, err := scanUser(row)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) Create(ctx context.Context, u domain.Identity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.AboutMe, toUnix(u.LastSeen),
		toNullString(u.Token), toNullUnix(u.TokenExpiration), toNullUnix(u.LastMessageReadTime),
		toUnix(u.CreatedAt), toUnix(u.UpdatedAt),
	)
	return mapConflict(err)
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (domain.Identity, error) {
	return r.getOne(ctx, "id", id)
}

// GetByIDForUpdate is a plain read. The store runs on a single connection, so
// a transaction already excludes every other writer.
func (r *usersRepo) GetByIDForUpdate(ctx context.Context, id string) (domain.Identity, error) {
	return r.getOne(ctx, "id", id)
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
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY username
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

// prefixed qualifies every column in a column list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func collectUsers(rows *sql.Rows) ([]domain.Identity, error) {
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

func (r *usersRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *usersRepo) Update(ctx context.Context, u domain.Identity) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET username = ?, email = ?, about_me = ?, updated_at = ?
		WHERE id = ?`,
		u.Username, u.Email, u.AboutMe, toUnix(time.Now()), u.ID,
	)
	if err != nil {
		return mapConflict(err)
	}
	return requireAffected(res)
}

func (r *usersRepo) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_seen = ? WHERE id = ?`, toUnix(at), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, toUnix(time.Now()), id,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) SetToken(ctx context.Context, id string, token string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET token = ?, token_expiration = ? WHERE id = ?`,
		token, toUnix(expiresAt), id,
	)
	if err != nil {
		return mapConflict(err)
	}
	return requireAffected(res)
}

func (r *usersRepo) ClearToken(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET token = NULL, token_expiration = NULL WHERE id = ?`, id,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
