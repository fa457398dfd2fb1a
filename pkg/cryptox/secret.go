package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretSize is the number of random bytes in a generated secret.
const SecretSize = 32

// LoadOrGenerateSecret reads a base64url secret from path, creating the file
// with SecretSize fresh random bytes when it does not exist yet. The pepper
// and the reset-token signing key are both kept this way.
func LoadOrGenerateSecret(path string) ([]byte, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("cryptox: create secret dir: %w", err)
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		secret := make([]byte, SecretSize)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("cryptox: generate secret: %w", err)
		}
		encoded := base64.RawURLEncoding.EncodeToString(secret)
		if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
			return nil, fmt.Errorf("cryptox: write secret: %w", err)
		}
		return secret, nil
	case err != nil:
		return nil, fmt.Errorf("cryptox: read secret: %w", err)
	}

	secret, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("cryptox: decode secret %s: %w", path, err)
	}
	if len(secret) < 16 {
		return nil, fmt.Errorf("cryptox: secret %s is too short", path)
	}
	return secret, nil
}
