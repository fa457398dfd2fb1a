package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/murmur/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewClaims(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewClaims("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", jwtx.PurposeResetPassword, "murmur", 10*time.Minute, now)

	require.Equal(t, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", c.Subject)
	require.Equal(t, jwtx.PurposeResetPassword, c.Purpose)
	require.Equal(t, now, c.IssuedAt.Time)
	require.Equal(t, now.Add(10*time.Minute), c.ExpiresAt.Time)
	require.NotEmpty(t, c.ID)

	other := jwtx.NewClaims("x", jwtx.PurposeResetPassword, "murmur", time.Minute, now)
	require.NotEqual(t, c.ID, other.ID, "every token gets its own jti")
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "murmur"}}

	require.NoError(t, c.ValidateIssuer("murmur"))
	require.NoError(t, c.ValidateIssuer(""))
	require.ErrorIs(t, c.ValidateIssuer("elsewhere"), jwtx.ErrIssuer)
}

func TestValidatePurpose(t *testing.T) {
	c := &jwtx.Claims{Purpose: jwtx.PurposeResetPassword}

	require.NoError(t, c.ValidatePurpose(jwtx.PurposeResetPassword))
	require.ErrorIs(t, c.ValidatePurpose("verify_email"), jwtx.ErrPurpose)
	require.ErrorIs(t, (&jwtx.Claims{}).ValidatePurpose(jwtx.PurposeResetPassword), jwtx.ErrPurpose)
}

func TestValidateExpiryAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		claims jwt.RegisteredClaims
		leeway time.Duration
		want   error
	}{
		{
			name:   "valid",
			claims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))},
		},
		{
			name:   "expired",
			claims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))},
			want:   jwtx.ErrExpired,
		},
		{
			name:   "expires exactly now",
			claims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now)},
			want:   jwtx.ErrExpired,
		},
		{
			name:   "expired but within leeway",
			claims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Second))},
			leeway: 30 * time.Second,
		},
		{
			name: "not yet valid",
			claims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				NotBefore: jwt.NewNumericDate(now.Add(time.Minute)),
			},
			want: jwtx.ErrNotYetValid,
		},
		{
			name: "missing exp",
			want: jwtx.ErrInvalidClaim,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &jwtx.Claims{RegisteredClaims: tt.claims}
			err := c.ValidateExpiryAt(now, tt.leeway)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}
