package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/internal/auth/store"
	"github.com/aussiebroadwan/murmur/pkg/cryptox"
	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

// CredentialService owns password hashing and checking. Plaintext passwords
// pass through it and are never stored or logged.
type CredentialService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

// HashPassword returns the PHC string to persist for plaintext.
func (s *CredentialService) HashPassword(plaintext string) (string, error) {
	return s.Hasher.Hash(plaintext)
}

// SetCredential replaces the identity's credential and updates it in place.
func (s *CredentialService) SetCredential(ctx context.Context, identity *domain.Identity, plaintext string) error {
	hash, err := s.HashPassword(plaintext)
	if err != nil {
		return err
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, identity.ID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	identity.PasswordHash = hash
	return nil
}

// CheckCredential reports whether plaintext matches the stored credential.
// Any failure, including a nil identity or an unparsable hash, is a mismatch.
func (s *CredentialService) CheckCredential(identity *domain.Identity, plaintext string) bool {
	if identity == nil || identity.PasswordHash == "" {
		return false
	}
	return s.Hasher.Verify(plaintext, identity.PasswordHash) == nil
}

// VerifyCredentials resolves a username/password pair. Unknown usernames burn
// one verification against a dummy hash and yield the same error as a wrong
// password.
func (s *CredentialService) VerifyCredentials(ctx context.Context, username, plaintext string) (*domain.Identity, error) {
	identity, err := s.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		_ = s.Hasher.Verify(plaintext, s.Hasher.DummyHash())
		slogx.FromContext(ctx).Info("credential check failed", slog.String("reason", "unknown_username"))
		return nil, ErrInvalidCredentials
	}

	if !s.CheckCredential(&identity, plaintext) {
		slogx.FromContext(ctx).Info("credential check failed",
			slog.String("reason", "password_mismatch"),
			slog.String("user_id", identity.ID))
		return nil, ErrInvalidCredentials
	}
	return &identity, nil
}
