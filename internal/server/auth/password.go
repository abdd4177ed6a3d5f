package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/pms/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// Stored hash prefixes.
const (
	plainScheme  = "plain"
	pbkdf2Scheme = "pbkdf2"
)

const (
	DefaultIterations  = 120000
	MinIterations      = 100000
	fallbackIterations = 100000
	saltSize           = 16
	digestSize         = 32
)

// PasswordHasher produces and checks stored password hashes of the form
// pbkdf2$<iterations>$<hex-salt>$<hex-digest>. The hex salt text itself is
// the PBKDF2 salt input, which keeps hashes written by earlier tooling
// verifiable.
//
// The fixture-only form plain$<literal> is accepted only when the hasher
// is built WithPlainPasswords(true).
type PasswordHasher struct {
	iterations  int
	allowPlain  bool
	randHexSalt func(int) (string, error)
}

// HasherOption customises a PasswordHasher.
type HasherOption func(*PasswordHasher)

// WithIterations sets the iteration count for new hashes. Values below
// MinIterations are raised to MinIterations.
func WithIterations(n int) HasherOption {
	return func(h *PasswordHasher) {
		if n < MinIterations {
			n = MinIterations
		}
		h.iterations = n
	}
}

// WithPlainPasswords enables the plain$ fixture branch. Development only.
func WithPlainPasswords(allow bool) HasherOption {
	return func(h *PasswordHasher) { h.allowPlain = allow }
}

func NewPasswordHasher(opts ...HasherOption) *PasswordHasher {
	h := &PasswordHasher{
		iterations:  DefaultIterations,
		randHexSalt: common.MakeRandHexString,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Hash returns a new pbkdf2 hash of plain with a fresh random salt.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	salt, err := h.randHexSalt(saltSize)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	digest := derive(plain, salt, h.iterations)
	return strings.Join([]string{pbkdf2Scheme, strconv.Itoa(h.iterations), salt, hex.EncodeToString(digest)}, "$"), nil
}

// Verify reports whether plain matches stored. A nil stored hash, an
// unknown scheme or a malformed value verifies as false.
func (h *PasswordHasher) Verify(plain string, stored *string) bool {
	if stored == nil || *stored == "" {
		return false
	}
	value := *stored

	if literal, ok := strings.CutPrefix(value, plainScheme+"$"); ok {
		if !h.allowPlain {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(plain), []byte(literal)) == 1
	}

	parts := strings.Split(value, "$")
	if len(parts) != 4 || parts[0] != pbkdf2Scheme {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		iterations = fallbackIterations
	}
	salt := parts[2]
	want, err := hex.DecodeString(parts[3])
	if err != nil || len(want) != digestSize {
		return false
	}

	got := derive(plain, salt, iterations)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// PlainAllowed reports whether the fixture branch is enabled.
func (h *PasswordHasher) PlainAllowed() bool {
	return h.allowPlain
}

func derive(plain, salt string, iterations int) []byte {
	return pbkdf2.Key([]byte(plain), []byte(salt), iterations, digestSize, sha256.New)
}
