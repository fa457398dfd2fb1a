package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PurposeResetPassword marks a token that may only be used to set a new
// password for its subject.
const PurposeResetPassword = "reset_password"

// DefaultResetTTL is the validity window of a password reset token.
const DefaultResetTTL = 10 * time.Minute

// Claims are the claims of a purpose-bound token. The purpose discriminator
// stops a token minted for one flow from being replayed in another.
type Claims struct {
	jwt.RegisteredClaims

	// Purpose names the single flow this token is good for.
	Purpose string `json:"purpose"`
}

// NewClaims builds claims for subject valid from now until now+ttl.
func NewClaims(subject, purpose, issuer string, ttl time.Duration, now time.Time) Claims {
	now = now.UTC()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Purpose: purpose,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer. An empty expectation enforces nothing.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" || c.Issuer == expected {
		return nil
	}
	return ErrIssuer
}

// ValidatePurpose requires an exact purpose match.
func (c *Claims) ValidatePurpose(expected string) error {
	if c.Purpose != expected {
		return ErrPurpose
	}
	return nil
}

// ValidateExpiryAt ensures the token is within [nbf, exp] at now, widened by
// leeway on both ends for clock skew. A token without exp is rejected.
func (c *Claims) ValidateExpiryAt(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if !now.Before(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
