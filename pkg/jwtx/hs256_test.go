package jwtx_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/murmur/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	keyA = bytes.Repeat([]byte{0xA1}, 32)
	keyB = bytes.Repeat([]byte{0xB2}, 32)
)

func newVerifier(now time.Time, keys map[string][]byte) *jwtx.HS256Verifier {
	return jwtx.NewVerifierHS256(keys, jwtx.VerifyOptions{
		Issuer:  "murmur",
		Purpose: jwtx.PurposeResetPassword,
		Now:     func() time.Time { return now },
	})
}

func TestNewSignerHS256(t *testing.T) {
	_, err := jwtx.NewSignerHS256("", keyA)
	require.Error(t, err)

	_, err = jwtx.NewSignerHS256("k1", []byte("short"))
	require.Error(t, err)

	s, err := jwtx.NewSignerHS256("k1", keyA)
	require.NoError(t, err)
	require.Equal(t, "HS256", s.Alg())
	require.Equal(t, "k1", s.KID())
}

func TestHS256_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer, err := jwtx.NewSignerHS256("k1", keyA)
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewClaims("user-1", jwtx.PurposeResetPassword, "murmur", 10*time.Minute, now))
	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(token, ".")))

	claims, err := newVerifier(now.Add(5*time.Minute), map[string][]byte{"k1": keyA}).Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, jwtx.PurposeResetPassword, claims.Purpose)
}

func TestHS256_Rejections(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer, err := jwtx.NewSignerHS256("k1", keyA)
	require.NoError(t, err)

	sign := func(c jwtx.Claims) string {
		tok, err := signer.Sign(c)
		require.NoError(t, err)
		return tok
	}
	valid := jwtx.NewClaims("user-1", jwtx.PurposeResetPassword, "murmur", 10*time.Minute, now)

	t.Run("expired", func(t *testing.T) {
		_, err := newVerifier(now.Add(11*time.Minute), map[string][]byte{"k1": keyA}).Verify(sign(valid))
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong purpose", func(t *testing.T) {
		c := valid
		c.Purpose = "verify_email"
		_, err := newVerifier(now, map[string][]byte{"k1": keyA}).Verify(sign(c))
		require.ErrorIs(t, err, jwtx.ErrPurpose)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := valid
		c.Issuer = "someone-else"
		_, err := newVerifier(now, map[string][]byte{"k1": keyA}).Verify(sign(c))
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("bad signature", func(t *testing.T) {
		_, err := newVerifier(now, map[string][]byte{"k1": keyB}).Verify(sign(valid))
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("unknown kid", func(t *testing.T) {
		_, err := newVerifier(now, map[string][]byte{"k2": keyA}).Verify(sign(valid))
		require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(sign(valid), ".")
		other := strings.Split(sign(jwtx.NewClaims("user-2", jwtx.PurposeResetPassword, "murmur", time.Minute, now)), ".")
		forged := parts[0] + "." + other[1] + "." + parts[2]
		_, err := newVerifier(now, map[string][]byte{"k1": keyA}).Verify(forged)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("alg none", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, valid)
		tok.Header["kid"] = "k1"
		s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = newVerifier(now, map[string][]byte{"k1": keyA}).Verify(s)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := newVerifier(now, map[string][]byte{"k1": keyA}).Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestHS256_RotatedKeysStillVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	old, err := jwtx.NewSignerHS256("k1", keyA)
	require.NoError(t, err)

	token, err := old.Sign(jwtx.NewClaims("user-1", jwtx.PurposeResetPassword, "murmur", time.Minute, now))
	require.NoError(t, err)

	_, err = newVerifier(now, map[string][]byte{"k1": keyA, "k2": keyB}).Verify(token)
	require.NoError(t, err)
}
