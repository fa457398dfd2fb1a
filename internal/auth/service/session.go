package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/internal/auth/observability"
	"github.com/aussiebroadwan/murmur/internal/auth/store"
	"github.com/aussiebroadwan/murmur/pkg/cryptox"
	"github.com/aussiebroadwan/murmur/pkg/idx"
	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

const (
	DefaultSessionTTL  = 12 * time.Hour
	DefaultRememberTTL = 365 * 24 * time.Hour
)

// SessionService binds browser contexts to identities. The cookie carries a
// random token, the store only ever sees its fingerprint.
type SessionService struct {
	Store       store.Store
	Credentials *CredentialService
	Redirects   *RedirectPolicy
	Metrics     *observability.Metrics

	SessionTTL  time.Duration
	RememberTTL time.Duration
	Now         func() time.Time
}

// LoginResult is what a successful Authenticate hands back to the transport.
type LoginResult struct {
	Token    string
	Session  domain.Session
	Identity domain.Identity
	Redirect string
}

// Authenticate checks the credentials and binds a fresh session. Unknown
// usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *SessionService) Authenticate(
	ctx context.Context,
	username, password string,
	remember bool,
	next string,
) (*LoginResult, error) {
	identity, err := s.Credentials.VerifyCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.Metrics.Login(observability.ResultFailure)
		}
		return nil, err
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	now := clock(s.Now)
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if remember {
		ttl = s.RememberTTL
		if ttl <= 0 {
			ttl = DefaultRememberTTL
		}
	}

	sess := domain.Session{
		ID:         idx.NewAt(now).String(),
		IdentityID: identity.ID,
		TokenHash:  cryptox.FingerprintToken(token),
		Remember:   remember,
		CreatedAt:  now,
		LastSeen:   now,
		ExpiresAt:  now.Add(ttl),
	}
	if err := s.Store.Sessions().Create(ctx, sess); err != nil {
		return nil, err
	}

	s.Metrics.Login(observability.ResultSuccess)
	slogx.FromContext(ctx).Info("session established",
		slog.String("user_id", identity.ID),
		slog.String("session_id", sess.ID),
		slog.Bool("remember", remember))

	return &LoginResult{
		Token:    token,
		Session:  sess,
		Identity: *identity,
		Redirect: s.Redirects.Resolve(next),
	}, nil
}

// Resolve maps a cookie token to its session and identity and marks both as
// seen. Unknown and expired sessions yield ErrUnauthenticated.
func (s *SessionService) Resolve(ctx context.Context, rawToken string) (*domain.Session, *domain.Identity, error) {
	if rawToken == "" {
		return nil, nil, ErrUnauthenticated
	}

	sess, err := s.Store.Sessions().GetByTokenHash(ctx, cryptox.FingerprintToken(rawToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}

	now := clock(s.Now)
	if sess.IsExpiredAt(now) {
		_ = s.Store.Sessions().Delete(ctx, sess.ID)
		return nil, nil, ErrUnauthenticated
	}

	identity, err := s.Store.Users().GetByID(ctx, sess.IdentityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}

	if err := s.Store.Sessions().Touch(ctx, sess.ID, now); err != nil {
		return nil, nil, err
	}
	sess.LastSeen = now

	if err := s.Store.Users().TouchLastSeen(ctx, identity.ID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	identity.LastSeen = now

	return &sess, &identity, nil
}

// Logout unbinds the session behind rawToken. Logging out an unknown or empty
// token is not an error.
func (s *SessionService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	sess, err := s.Store.Sessions().GetByTokenHash(ctx, cryptox.FingerprintToken(rawToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.Store.Sessions().Delete(ctx, sess.ID); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("session ended",
		slog.String("user_id", sess.IdentityID),
		slog.String("session_id", sess.ID))
	return nil
}
