package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/internal/auth/store"
	"github.com/aussiebroadwan/murmur/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/murmur/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func newIdentity(username string) domain.Identity {
	now := time.Now().UTC()
	return domain.Identity{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$argon2id$placeholder",
		LastSeen:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.ApplyMigrations())
}

func TestUsersCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	u := newIdentity("susan")
	u.AboutMe = "hello"
	require.NoError(t, st.Users().Create(ctx, u))

	byID, err := st.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "susan", byID.Username)
	require.Equal(t, "hello", byID.AboutMe)
	require.True(t, u.CreatedAt.Equal(byID.CreatedAt))
	require.Nil(t, byID.Token)
	require.Nil(t, byID.TokenExpiration)

	byName, err := st.Users().GetByUsername(ctx, "susan")
	require.NoError(t, err)
	require.Equal(t, u.ID, byName.ID)

	byEmail, err := st.Users().GetByEmail(ctx, "susan@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	_, err = st.Users().GetByUsername(ctx, "Susan")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsersConflicts(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	require.NoError(t, st.Users().Create(ctx, newIdentity("u1")))

	dupName := newIdentity("u1")
	dupName.Email = "other@example.com"
	err := st.Users().Create(ctx, dupName)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
	var conflict *store.ConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "username", conflict.Field)

	dupEmail := newIdentity("u2")
	dupEmail.Email = "u1@example.com"
	err = st.Users().Create(ctx, dupEmail)
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "email", conflict.Field)

	n, err := st.Users().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestUsersUpdate(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	a := newIdentity("alice")
	b := newIdentity("bob")
	require.NoError(t, st.Users().Create(ctx, a))
	require.NoError(t, st.Users().Create(ctx, b))

	a.Username = "alicia"
	a.AboutMe = "new bio"
	require.NoError(t, st.Users().Update(ctx, a))

	got, err := st.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "alicia", got.Username)
	require.Equal(t, "new bio", got.AboutMe)

	b.Username = "alicia"
	err = st.Users().Update(ctx, b)
	var conflict *store.ConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "username", conflict.Field)

	missing := newIdentity("ghost")
	require.ErrorIs(t, st.Users().Update(ctx, missing), store.ErrNotFound)

	require.NoError(t, st.Users().UpdatePasswordHash(ctx, a.ID, "$argon2id$other"))
	got, err = st.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "$argon2id$other", got.PasswordHash)
}

func TestUsersTouchLastSeen(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	a := newIdentity("alice")
	require.NoError(t, st.Users().Create(ctx, a))

	seen := a.LastSeen.Add(time.Hour)
	require.NoError(t, st.Users().TouchLastSeen(ctx, a.ID, seen))

	// A profile write from a stale copy leaves last_seen alone.
	a.AboutMe = "bio"
	require.NoError(t, st.Users().Update(ctx, a))

	got, err := st.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, seen.Equal(got.LastSeen))
	require.Equal(t, "bio", got.AboutMe)

	require.ErrorIs(t, st.Users().TouchLastSeen(ctx, "missing", seen), store.ErrNotFound)
}

func TestUsersGetByIDForUpdateInTx(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	a := newIdentity("alice")
	require.NoError(t, st.Users().Create(ctx, a))

	err := st.WithTx(ctx, func(tx store.Tx) error {
		got, err := tx.Users().GetByIDForUpdate(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", got.Username)

		_, err = tx.Users().GetByIDForUpdate(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestUsersListOrderedByUsername(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	for _, name := range []string{"carol", "alice", "bob"} {
		require.NoError(t, st.Users().Create(ctx, newIdentity(name)))
	}

	page, err := st.Users().List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "alice", page[0].Username)
	require.Equal(t, "bob", page[1].Username)

	page, err = st.Users().List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "carol", page[0].Username)
}

func TestUsersTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	u := newIdentity("tok")
	require.NoError(t, st.Users().Create(ctx, u))

	exp := time.Now().Add(time.Hour).UTC()
	require.NoError(t, st.Users().SetToken(ctx, u.ID, "abc123", exp))

	got, err := st.Users().GetByToken(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.Token)
	require.Equal(t, "abc123", *got.Token)
	require.True(t, exp.Equal(*got.TokenExpiration))

	require.NoError(t, st.Users().ClearToken(ctx, u.ID))
	_, err = st.Users().GetByToken(ctx, "abc123")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err = st.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.HasToken())
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	u := newIdentity("sess")
	require.NoError(t, st.Users().Create(ctx, u))

	now := time.Now().UTC()
	live := domain.Session{
		ID: idx.New().String(), IdentityID: u.ID, TokenHash: "live", Remember: true,
		CreatedAt: now, LastSeen: now, ExpiresAt: now.Add(time.Hour),
	}
	dead := domain.Session{
		ID: idx.New().String(), IdentityID: u.ID, TokenHash: "dead",
		CreatedAt: now, LastSeen: now, ExpiresAt: now.Add(-time.Minute),
	}
	require.NoError(t, st.Sessions().Create(ctx, live))
	require.NoError(t, st.Sessions().Create(ctx, dead))

	got, err := st.Sessions().GetByTokenHash(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, live.ID, got.ID)
	require.True(t, got.Remember)

	later := now.Add(5 * time.Minute)
	require.NoError(t, st.Sessions().Touch(ctx, live.ID, later))
	got, err = st.Sessions().GetByTokenHash(ctx, "live")
	require.NoError(t, err)
	require.True(t, later.Equal(got.LastSeen))

	n, err := st.Sessions().DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	_, err = st.Sessions().GetByTokenHash(ctx, "dead")
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err = st.Sessions().DeleteByIdentity(ctx, u.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestFollows(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	a, b, c := newIdentity("a"), newIdentity("b"), newIdentity("c")
	for _, u := range []domain.Identity{a, b, c} {
		require.NoError(t, st.Users().Create(ctx, u))
	}

	now := time.Now().UTC()
	require.NoError(t, st.Follows().Follow(ctx, domain.Follow{FollowerID: a.ID, FollowedID: b.ID, CreatedAt: now}))
	require.NoError(t, st.Follows().Follow(ctx, domain.Follow{FollowerID: a.ID, FollowedID: b.ID, CreatedAt: now}))
	require.NoError(t, st.Follows().Follow(ctx, domain.Follow{FollowerID: c.ID, FollowedID: b.ID, CreatedAt: now}))

	ok, err := st.Follows().IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = st.Follows().IsFollowing(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.False(t, ok)

	n, err := st.Follows().CountFollowers(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	followers, err := st.Follows().Followers(ctx, b.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	require.Equal(t, "a", followers[0].Username)
	require.Equal(t, "c", followers[1].Username)

	following, err := st.Follows().Following(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, following, 1)
	require.Equal(t, b.ID, following[0].ID)

	require.NoError(t, st.Follows().Unfollow(ctx, a.ID, b.ID))
	require.NoError(t, st.Follows().Unfollow(ctx, a.ID, b.ID))
	n, err = st.Follows().CountFollowing(ctx, a.ID)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestResetTokens(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	u := newIdentity("reset")
	require.NoError(t, st.Users().Create(ctx, u))

	now := time.Now().UTC()
	used := domain.UsedResetToken{JTI: "jti-1", IdentityID: u.ID, UsedAt: now, ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, st.ResetTokens().MarkUsed(ctx, used))

	err := st.ResetTokens().MarkUsed(ctx, used)
	var conflict *store.ConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "jti", conflict.Field)

	ok, err := st.ResetTokens().IsUsed(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)

	n, err := st.ResetTokens().DeleteExpired(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().Create(ctx, newIdentity("rolled")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Users().GetByUsername(ctx, "rolled")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().Create(ctx, newIdentity("kept"))
	})
	require.NoError(t, err)
	_, err = st.Users().GetByUsername(ctx, "kept")
	require.NoError(t, err)
}
