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
	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

const (
	DefaultAPITokenTTL       = time.Hour
	DefaultAPITokenFreshness = time.Minute
)

// APITokenService mints, resolves and revokes opaque bearer tokens. Each
// identity holds at most one token, stored with its expiry.
type APITokenService struct {
	Store   store.Store
	Metrics *observability.Metrics

	// TTL is the validity window of a newly minted token.
	TTL time.Duration
	// Freshness is the remaining validity below which a token is replaced
	// rather than handed out again.
	Freshness time.Duration
	Now       func() time.Time
}

func (s *APITokenService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultAPITokenTTL
	}
	return s.TTL
}

func (s *APITokenService) freshness() time.Duration {
	if s.Freshness <= 0 {
		return DefaultAPITokenFreshness
	}
	return s.Freshness
}

// IssueToken returns the identity's current token when it is still fresh and
// mints a replacement otherwise. The identity row stays locked from the read
// to the write, so concurrent callers all get the same token.
func (s *APITokenService) IssueToken(ctx context.Context, identityID string) (string, time.Time, error) {
	now := clock(s.Now)

	var (
		token     string
		expiresAt time.Time
		reused    bool
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		identity, err := tx.Users().GetByIDForUpdate(ctx, identityID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		if identity.TokenFreshAt(now, s.freshness()) {
			token, expiresAt, reused = *identity.Token, *identity.TokenExpiration, true
			return nil
		}

		token, err = cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return err
		}
		expiresAt = now.Add(s.ttl())
		return tx.Users().SetToken(ctx, identityID, token, expiresAt)
	})
	if err != nil {
		return "", time.Time{}, err
	}

	if reused {
		s.Metrics.APIToken(observability.TokenReused)
	} else {
		s.Metrics.APIToken(observability.TokenIssued)
		slogx.FromContext(ctx).Info("api token issued",
			slog.String("user_id", identityID),
			slog.Time("expires_at", expiresAt))
	}
	return token, expiresAt, nil
}

// AuthenticateToken resolves token to its identity. Every failure, whether
// unknown, expired, revoked or empty, is ErrInvalidToken.
func (s *APITokenService) AuthenticateToken(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	identity, err := s.Store.Users().GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Metrics.APIToken(observability.TokenRejected)
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if !identity.HasToken() || !cryptox.EqualTokens(*identity.Token, token) || !identity.TokenValidAt(clock(s.Now)) {
		s.Metrics.APIToken(observability.TokenRejected)
		return nil, ErrInvalidToken
	}
	return &identity, nil
}

// Revoke clears the identity's token. It has been committed by the time
// Revoke returns, so later AuthenticateToken calls with it fail.
func (s *APITokenService) Revoke(ctx context.Context, identityID string) error {
	if err := s.Store.Users().ClearToken(ctx, identityID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.Metrics.APIToken(observability.TokenRevoked)
	slogx.FromContext(ctx).Info("api token revoked", slog.String("user_id", identityID))
	return nil
}
