package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestRegisterConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.users.Register(ctx, RegistrationInput{
		Username: "u1", Email: "u1@example.com", Password: "cat", Password2: "cat",
	})
	require.NoError(t, err)

	_, err = e.users.Register(ctx, RegistrationInput{
		Username: "u1", Email: "other@example.com", Password: "cat", Password2: "cat",
	})
	require.ErrorIs(t, err, ErrConflict)
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Equal(t, []string{MsgUsernameTaken}, verrs.For("username"))
	require.Empty(t, verrs.For("email"))

	_, err = e.users.Register(ctx, RegistrationInput{
		Username: "u2", Email: "u1@example.com", Password: "cat", Password2: "cat",
	})
	require.ErrorIs(t, err, ErrConflict)
	require.True(t, errors.As(err, &verrs))
	require.Equal(t, []string{MsgEmailTaken}, verrs.For("email"))

	n, err := e.store.Users().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.users.Register(ctx, RegistrationInput{Username: "", Email: "nope", Password: "a", Password2: "b"})
	require.ErrorIs(t, err, ErrValidation)
	require.NotErrorIs(t, err, ErrConflict)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.NotEmpty(t, verrs.For("username"))
	require.NotEmpty(t, verrs.For("email"))
	require.NotEmpty(t, verrs.For("password2"))

	n, err := e.store.Users().Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRegisterStoresHashNotPassword(t *testing.T) {
	e := newEnv(t)
	u := e.register(t, "susan", "s3cret")

	require.NotEqual(t, "s3cret", u.PasswordHash)
	require.Contains(t, u.PasswordHash, "$argon2id$")
	require.Equal(t, e.clock.Now(), u.CreatedAt)
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice", "cat")
	bob := e.register(t, "bob", "dog")

	t.Run("anonymous", func(t *testing.T) {
		_, err := e.users.UpdateProfile(ctx, nil, alice.ID, ProfileInput{AboutMe: ptr("x")})
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("someone else", func(t *testing.T) {
		_, err := e.users.UpdateProfile(ctx, bob, alice.ID, ProfileInput{AboutMe: ptr("x")})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("keep own username", func(t *testing.T) {
		got, err := e.users.UpdateProfile(ctx, alice, alice.ID, ProfileInput{
			Username: ptr("alice"),
			AboutMe:  ptr("I like cats"),
		})
		require.NoError(t, err)
		require.Equal(t, "I like cats", got.AboutMe)
	})

	t.Run("taken username", func(t *testing.T) {
		_, err := e.users.UpdateProfile(ctx, alice, alice.ID, ProfileInput{Username: ptr("bob")})
		require.ErrorIs(t, err, ErrConflict)

		stored, err := e.users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", stored.Username)
	})

	t.Run("taken email", func(t *testing.T) {
		_, err := e.users.UpdateProfile(ctx, alice, alice.ID, ProfileInput{Email: ptr("bob@example.com")})
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("about me too long", func(t *testing.T) {
		long := make([]byte, MaxAboutMeLength+1)
		for i := range long {
			long[i] = 'a'
		}
		_, err := e.users.UpdateProfile(ctx, alice, alice.ID, ProfileInput{AboutMe: ptr(string(long))})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rename", func(t *testing.T) {
		got, err := e.users.UpdateProfile(ctx, alice, alice.ID, ProfileInput{Username: ptr("alicia")})
		require.NoError(t, err)
		require.Equal(t, "alicia", got.Username)

		_, err = e.users.GetByUsername(ctx, "alice")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListUsers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, name := range []string{"d", "b", "a", "c"} {
		e.register(t, name, "pw")
	}

	page, err := e.users.List(ctx, 2, 3)
	require.NoError(t, err)
	require.Equal(t, 4, page.TotalItems)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	require.Equal(t, "d", page.Items[0].Username)
	require.True(t, page.HasPrev())
	require.False(t, page.HasNext())

	page, err = e.users.List(ctx, 0, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)
	require.Equal(t, MaxPerPage, page.PerPage)
	require.Len(t, page.Items, 4)
}
