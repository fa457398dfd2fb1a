package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeySize is the smallest HMAC key accepted, in bytes.
const MinKeySize = 32

// Signer is anything that can sign Claims into a compact JWT.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
}

// HS256Signer signs tokens with a shared HMAC-SHA256 key. Reset tokens are
// only ever verified by the service that issued them, so no public key has to
// be published.
type HS256Signer struct {
	kid string
	key []byte
}

// NewSignerHS256 creates a signer. The kid is written to the token header so
// verifiers can pick the right key after a rotation.
func NewSignerHS256(kid string, key []byte) (*HS256Signer, error) {
	if kid == "" {
		return nil, errors.New("jwtx: empty kid")
	}
	if len(key) < MinKeySize {
		return nil, errors.New("jwtx: HS256 key too short")
	}
	return &HS256Signer{kid: kid, key: key}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string { return s.kid }

// Sign turns claims into a signed JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}
