//go:build e2e

package murmur_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/murmur/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPostgresBackend runs two murmur instances against one Postgres
// database and checks they see each other's accounts.
func TestPostgresBackend(t *testing.T) {
	ctx := context.Background()

	nw, err := network.New(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = nw.Remove(ctx) })

	db, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("murmur"),
		tcpostgres.WithUsername("murmur"),
		tcpostgres.WithPassword("murmur"),
		network.WithNetwork([]string{"db"}, nw),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Terminate(ctx) })

	env := map[string]string{
		"MURMUR_DATABASE_URL": "postgres://murmur:murmur@db:5432/murmur?sslmode=disable",
	}
	for k, v := range relaxedLimits {
		env[k] = v
	}
	opts := containerOptions{env: env, networks: []string{nw.Name}}

	first := authsdk.NewSDKClient(setupMurmurContainer(t, opts))
	health, err := first.GetReadiness(t.Context())
	assertHealthy(t, health, err)

	user, _ := registerAndLogin(t, first, "susan")

	// A second instance sharing the database sees the account. It has its own
	// pepper file, so only the record is checked, not the password.
	second := authsdk.NewSDKClient(setupMurmurContainer(t, opts))
	_, session := registerAndLogin(t, second, "david")

	got, err := session.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "susan", got.Username)
}
