package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/murmur/pkg/cryptox"
	"github.com/aussiebroadwan/murmur/pkg/jwtx"
)

// resetKeyID names the single reset-token key. Rotating the secret file
// invalidates every outstanding reset link, which is acceptable for
// ten-minute tokens.
const resetKeyID = "reset-1"

// InitResetKeys loads the HS256 key for password reset tokens from
// cfg.SecretFile, generating it on first start.
func InitResetKeys(cfg Config, logger *slog.Logger) (*jwtx.HS256Signer, *jwtx.HS256Verifier, error) {
	secret, err := cryptox.LoadOrGenerateSecret(cfg.SecretFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load reset-token secret: %w", err)
	}

	signer, err := jwtx.NewSignerHS256(resetKeyID, secret)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create reset-token signer: %w", err)
	}
	verifier := jwtx.NewVerifierHS256(map[string][]byte{resetKeyID: secret}, jwtx.VerifyOptions{
		Issuer:  cfg.Issuer,
		Purpose: jwtx.PurposeResetPassword,
	})

	logger.Info("reset-token key loaded", "kid", resetKeyID, "path", cfg.SecretFile)
	return signer, verifier, nil
}

// NewHasher loads the password pepper from cfg.PepperFile, generating it on
// first start, and returns the Argon2id hasher using it.
func NewHasher(cfg Config) (*cryptox.Hasher, error) {
	pepper, err := cryptox.LoadOrGenerateSecret(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	return cryptox.NewHasher(pepper), nil
}
