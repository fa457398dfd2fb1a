package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, identity domain.Identity, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = map[string]string{}
	}
	m.links[identity.Email] = link
	return nil
}

func (m *recordingMailer) tokenFor(t *testing.T, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[email]
	require.True(t, ok, "no mail for %s", email)
	i := strings.Index(link, ResetPath)
	require.GreaterOrEqual(t, i, 0)
	return link[i+len(ResetPath):]
}

var testResetKey = []byte("0123456789abcdef0123456789abcdef")

func newResetService(t *testing.T, e *env, mailer Mailer) *ResetService {
	t.Helper()
	signer, err := jwtx.NewSignerHS256("k1", testResetKey)
	require.NoError(t, err)
	verifier := jwtx.NewVerifierHS256(map[string][]byte{"k1": testResetKey}, jwtx.VerifyOptions{
		Issuer:  "murmur",
		Purpose: jwtx.PurposeResetPassword,
		Now:     e.clock.Now,
	})
	return &ResetService{
		Store:       e.store,
		Credentials: e.creds,
		Signer:      signer,
		Verifier:    verifier,
		Mailer:      mailer,
		Issuer:      "murmur",
		TTL:         10 * time.Minute,
		BaseURL:     "http://localhost:8080/",
		Now:         e.clock.Now,
	}
}

func TestResetPasswordFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mailer := &recordingMailer{}
	svc := newResetService(t, e, mailer)
	tokens := newTokenService(e)
	sessions := newSessionService(t, e)

	u := e.register(t, "susan", "cat")
	apiToken, _, err := tokens.IssueToken(ctx, u.ID)
	require.NoError(t, err)
	login, err := sessions.Authenticate(ctx, "susan", "cat", true, "")
	require.NoError(t, err)

	require.NoError(t, svc.RequestReset(ctx, "susan@example.com"))
	token := mailer.tokenFor(t, "susan@example.com")
	require.True(t, strings.HasPrefix(mailer.links["susan@example.com"], "http://localhost:8080/auth/reset_password/"))

	who, err := svc.VerifyResetToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, u.ID, who.ID)

	_, err = svc.ResetPassword(ctx, token, "dog", "cow")
	require.ErrorIs(t, err, ErrValidation)

	got, err := svc.ResetPassword(ctx, token, "dog", "dog")
	require.NoError(t, err)
	require.False(t, got.HasToken())

	_, err = e.creds.VerifyCredentials(ctx, "susan", "cat")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.creds.VerifyCredentials(ctx, "susan", "dog")
	require.NoError(t, err)

	_, err = tokens.AuthenticateToken(ctx, apiToken)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, _, err = sessions.Resolve(ctx, login.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.ResetPassword(ctx, token, "eel", "eel")
	require.ErrorIs(t, err, ErrInvalidResetToken, "tokens are single use")
	_, err = svc.VerifyResetToken(ctx, token)
	require.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestRequestResetUnknownAddressIsSilent(t *testing.T) {
	e := newEnv(t)
	mailer := &recordingMailer{}
	svc := newResetService(t, e, mailer)

	require.NoError(t, svc.RequestReset(context.Background(), "nobody@example.com"))
	require.Empty(t, mailer.links)

	require.ErrorIs(t, svc.RequestReset(context.Background(), "not-an-email"), ErrValidation)
}

func TestVerifyResetTokenRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := newResetService(t, e, &recordingMailer{})
	u := e.register(t, "susan", "cat")

	t.Run("expired", func(t *testing.T) {
		token, err := svc.IssueResetToken(*u)
		require.NoError(t, err)
		e.clock.Advance(10 * time.Minute)
		_, err = svc.VerifyResetToken(ctx, token)
		require.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("wrong purpose", func(t *testing.T) {
		signer, err := jwtx.NewSignerHS256("k1", testResetKey)
		require.NoError(t, err)
		token, err := signer.Sign(jwtx.NewClaims(u.ID, "confirm_email", "murmur", time.Minute, e.clock.Now()))
		require.NoError(t, err)
		_, err = svc.VerifyResetToken(ctx, token)
		require.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		signer, err := jwtx.NewSignerHS256("k1", []byte("another-key-another-key-another-k"))
		require.NoError(t, err)
		token, err := signer.Sign(jwtx.NewClaims(u.ID, jwtx.PurposeResetPassword, "murmur", time.Minute, e.clock.Now()))
		require.NoError(t, err)
		_, err = svc.VerifyResetToken(ctx, token)
		require.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("unknown subject", func(t *testing.T) {
		token, err := svc.IssueResetToken(domain.Identity{ID: "ghost"})
		require.NoError(t, err)
		_, err = svc.VerifyResetToken(ctx, token)
		require.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.VerifyResetToken(ctx, "not.a.jwt")
		require.ErrorIs(t, err, ErrInvalidResetToken)
	})
}
