package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/murmur/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// env wires every service against one in-memory store and a shared clock.
type env struct {
	store  *sqlite.Store
	clock  *fakeClock
	creds  *CredentialService
	guard  *Guard
	users  *UserService
	follow *FollowService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clk := newFakeClock()
	hasher := &cryptox.Hasher{
		Pepper: []byte("test-pepper"),
		Params: cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16},
	}
	creds := &CredentialService{Store: st, Hasher: hasher}
	guard := &Guard{}
	users := &UserService{Store: st, Credentials: creds, Guard: guard, Now: clk.Now}

	return &env{
		store:  st,
		clock:  clk,
		creds:  creds,
		guard:  guard,
		users:  users,
		follow: &FollowService{Store: st, Users: users, Guard: guard, Now: clk.Now},
	}
}

func (e *env) register(t *testing.T, username, password string) *domain.Identity {
	t.Helper()
	identity, err := e.users.Register(context.Background(), RegistrationInput{
		Username:  username,
		Email:     username + "@example.com",
		Password:  password,
		Password2: password,
	})
	require.NoError(t, err)
	return identity
}
