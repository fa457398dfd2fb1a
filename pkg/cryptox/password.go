package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrPasswordMismatch is returned when a password does not match its hash.
	ErrPasswordMismatch = errors.New("cryptox: password does not match")

	// ErrMalformedHash is returned when an encoded hash cannot be parsed.
	ErrMalformedHash = errors.New("cryptox: malformed password hash")
)

// Params are the Argon2id cost parameters.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  uint32
}

// DefaultParams follow the OWASP minimum recommendation for Argon2id.
var DefaultParams = Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	KeyLength:   32,
	SaltLength:  16,
}

// Hasher produces and checks PHC encoded Argon2id hashes. The pepper is
// appended to every password before hashing and never stored with the hash.
type Hasher struct {
	Pepper []byte
	Params Params

	dummyOnce sync.Once
	dummy     string
}

// NewHasher returns a Hasher using DefaultParams.
func NewHasher(pepper []byte) *Hasher {
	return &Hasher{Pepper: pepper, Params: DefaultParams}
}

// Hash returns "$argon2id$v=19$m=..,t=..,p=..$salt$hash" for password.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}

	key := argon2.IDKey(
		h.peppered(password),
		salt,
		h.Params.Iterations,
		h.Params.Memory,
		h.Params.Parallelism,
		h.Params.KeyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.Params.Memory,
		h.Params.Iterations,
		h.Params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify compares password against encoded in constant time. It returns nil
// on a match, ErrPasswordMismatch on a mismatch and ErrMalformedHash when
// encoded is not something Hash produced.
func (h *Hasher) Verify(password, encoded string) error {
	p, salt, want, err := decodeHash(encoded)
	if err != nil {
		return err
	}

	got := argon2.IDKey(h.peppered(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	if subtle.ConstantTimeCompare(got, want) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

// NeedsRehash reports whether encoded was produced with parameters other than
// the hasher's current ones.
func (h *Hasher) NeedsRehash(encoded string) bool {
	p, _, _, err := decodeHash(encoded)
	if err != nil {
		return true
	}
	return p.Memory != h.Params.Memory ||
		p.Iterations != h.Params.Iterations ||
		p.Parallelism != h.Params.Parallelism ||
		p.KeyLength != h.Params.KeyLength
}

// DummyHash returns a valid hash of a random password, computed once. Verifying
// against it costs the same as verifying a real hash, so callers can burn the
// same time for an unknown account as for a wrong password.
func (h *Hasher) DummyHash() string {
	h.dummyOnce.Do(func() {
		pw, err := GenerateToken(TokenSize128)
		if err == nil {
			h.dummy, err = h.Hash(pw)
		}
		if err != nil {
			// Still parseable, still costs a full derivation.
			h.dummy = fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
				argon2.Version, h.Params.Memory, h.Params.Iterations, h.Params.Parallelism,
				base64.RawStdEncoding.EncodeToString(make([]byte, h.Params.SaltLength)),
				base64.RawStdEncoding.EncodeToString(make([]byte, h.Params.KeyLength)))
		}
	})
	return h.dummy
}

func (h *Hasher) peppered(password string) []byte {
	b := make([]byte, 0, len(password)+len(h.Pepper))
	b = append(b, password...)
	return append(b, h.Pepper...)
}

func decodeHash(encoded string) (Params, []byte, []byte, error) {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}

	p.SaltLength = uint32(len(salt)) // #nosec G115 - bounded by the decoded string
	p.KeyLength = uint32(len(key))   // #nosec G115 - bounded by the decoded string
	return p, salt, key, nil
}
