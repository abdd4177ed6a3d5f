// Package auth implements the stateless credential primitives of pms: the
// HS256 bearer token codec and the password hasher.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pms/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of issued tokens unless overridden.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrMissingSecret is returned by NewTokenCodec when no secret is configured.
var ErrMissingSecret = errors.New("auth: token secret is not configured")

// Claims is the token payload: the subject (user id), optional display
// claims, and the iat/exp timestamps added at issuance.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies compact HS256 tokens. It is immutable
// after construction and safe for concurrent use.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customises a TokenCodec.
type TokenOption func(*TokenCodec)

// WithTTL overrides DefaultTokenTTL.
func WithTTL(ttl time.Duration) TokenOption {
	return func(c *TokenCodec) { c.ttl = ttl }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) { c.now = now }
}

// NewTokenCodec returns a codec bound to secret. An empty secret is a
// configuration error and must stop the process at startup.
func NewTokenCodec(secret []byte, opts ...TokenOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	c := &TokenCodec{
		secret: append([]byte(nil), secret...),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Issue signs claims with the codec's default lifetime.
func (c *TokenCodec) Issue(claims Claims) (string, error) {
	return c.IssueWithTTL(claims, c.ttl)
}

// IssueWithTTL signs claims, overwriting iat with the current second and
// exp with iat+ttl. A negative ttl produces an already expired token.
func (c *TokenCodec) IssueWithTTL(claims Claims, ttl time.Duration) (string, error) {
	iat := c.now().Truncate(time.Second)
	claims.IssuedAt = jwt.NewNumericDate(iat)
	claims.ExpiresAt = jwt.NewNumericDate(iat.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks structure, signature and expiry and returns the decoded
// claims. Segments must be canonical unpadded base64url, so a signature is
// accepted only if it is the exact string the secret produces. Every
// failure wraps common.ErrInvalidToken; an elapsed exp also wraps
// common.ErrTokenExpired so callers can log the distinction.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, fmt.Errorf("%w: malformed", common.ErrInvalidToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
