package postgres

import (
	"errors"
	"strings"

	"github.com/aussiebroadwan/murmur/internal/auth/store/drivers/postgres/migrations"
	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

var errNoDatabaseURL = errors.New("postgres: no database url for migrations")

// migrateURL rewrites postgres:// and postgresql:// to the pgx5:// scheme
// golang-migrate registers its pgx/v5 driver under.
func migrateURL(databaseURL string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(databaseURL, prefix); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// ApplyMigrations applies pending migrations embedded in the binary over a
// dedicated connection.
func (s *Store) ApplyMigrations() error {
	if s.databaseURL == "" {
		return oops.Code("MIGRATION_INIT_FAILED").Wrap(errNoDatabaseURL)
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return oops.Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(s.databaseURL))
	if err != nil {
		_ = source.Close()
		return oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	return nil
}
