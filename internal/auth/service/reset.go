package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/internal/auth/observability"
	"github.com/aussiebroadwan/murmur/internal/auth/store"
	"github.com/aussiebroadwan/murmur/pkg/jwtx"
	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

// ResetPath is the page a reset link points at; the token is appended.
const ResetPath = "/auth/reset_password/"

// ResetService runs the emailed password reset flow. Tokens are signed JWTs
// bound to the reset purpose; a redeemed jti is recorded so each token works
// once.
type ResetService struct {
	Store       store.Store
	Credentials *CredentialService
	Signer      jwtx.Signer
	Verifier    jwtx.Verifier
	Mailer      Mailer
	Metrics     *observability.Metrics

	Issuer  string
	TTL     time.Duration
	BaseURL string
	Now     func() time.Time
}

func (s *ResetService) ttl() time.Duration {
	if s.TTL <= 0 {
		return jwtx.DefaultResetTTL
	}
	return s.TTL
}

// IssueResetToken signs a reset token for identity.
func (s *ResetService) IssueResetToken(identity domain.Identity) (string, error) {
	claims := jwtx.NewClaims(identity.ID, jwtx.PurposeResetPassword, s.Issuer, s.ttl(), clock(s.Now))
	return s.Signer.Sign(claims)
}

// ResetLink builds the absolute link mailed to the identity.
func (s *ResetService) ResetLink(token string) string {
	return strings.TrimRight(s.BaseURL, "/") + ResetPath + url.PathEscape(token)
}

// RequestReset mails a reset link when email belongs to an identity. Unknown
// addresses succeed silently so the response never reveals who is registered.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := ValidateResetRequest(email).Err(); err != nil {
		return err
	}

	identity, err := s.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Debug("password reset requested for unknown address")
			return nil
		}
		return err
	}

	token, err := s.IssueResetToken(identity)
	if err != nil {
		return err
	}
	if err := s.Mailer.SendPasswordReset(ctx, identity, s.ResetLink(token)); err != nil {
		return err
	}
	s.Metrics.PasswordReset(observability.ResetRequested)
	return nil
}

// VerifyResetToken checks signature, algorithm, issuer, purpose and freshness
// of token, that it has not been redeemed, and that its subject still exists.
// Every failure is ErrInvalidResetToken.
func (s *ResetService) VerifyResetToken(ctx context.Context, token string) (*domain.Identity, error) {
	identity, _, err := s.verify(ctx, token)
	return identity, err
}

func (s *ResetService) verify(ctx context.Context, token string) (*domain.Identity, jwtx.Claims, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Verifier.Verify(token)
	if err != nil {
		l.Info("reset token rejected", slog.String("reason", err.Error()))
		s.Metrics.PasswordReset(observability.ResetRejected)
		return nil, jwtx.Claims{}, ErrInvalidResetToken
	}

	used, err := s.Store.ResetTokens().IsUsed(ctx, claims.ID)
	if err != nil {
		return nil, jwtx.Claims{}, err
	}
	if used {
		l.Info("reset token rejected", slog.String("reason", "already used"))
		s.Metrics.PasswordReset(observability.ResetRejected)
		return nil, jwtx.Claims{}, ErrInvalidResetToken
	}

	identity, err := s.Store.Users().GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, jwtx.Claims{}, ErrInvalidResetToken
		}
		return nil, jwtx.Claims{}, err
	}
	return &identity, claims, nil
}

// ResetPassword sets a new password using token. The jti is marked used, the
// credential replaced, the API token cleared and every session dropped in
// one transaction; a second redemption of the same token fails.
func (s *ResetService) ResetPassword(ctx context.Context, token, password, password2 string) (*domain.Identity, error) {
	identity, claims, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := ValidateResetPassword(password, password2).Err(); err != nil {
		return nil, err
	}

	hash, err := s.Credentials.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := clock(s.Now)
	var dropped int64
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		err := tx.ResetTokens().MarkUsed(ctx, domain.UsedResetToken{
			JTI:        claims.ID,
			IdentityID: identity.ID,
			UsedAt:     now,
			ExpiresAt:  claims.ExpiresAt.Time,
		})
		if err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrInvalidResetToken
			}
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, identity.ID, hash); err != nil {
			return err
		}
		if err := tx.Users().ClearToken(ctx, identity.ID); err != nil {
			return err
		}
		dropped, err = tx.Sessions().DeleteByIdentity(ctx, identity.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			s.Metrics.PasswordReset(observability.ResetRejected)
		}
		return nil, err
	}

	identity.PasswordHash = hash
	identity.Token = nil
	identity.TokenExpiration = nil

	s.Metrics.PasswordReset(observability.ResetCompleted)
	slogx.FromContext(ctx).Info("password reset",
		slog.String("user_id", identity.ID),
		slog.Int64("sessions_dropped", dropped))
	return identity, nil
}
