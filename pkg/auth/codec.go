package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signingAlgorithm is the only algorithm this codec will ever sign or verify
// with. The verifier pins it via jwt.WithValidMethods so an algorithm field
// supplied by the token itself is never trusted.
const signingAlgorithm = "HS256"

var (
	// ErrTokenExpired means the token's signature was valid but its expiry
	// is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid means the signature or structure is malformed.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the session token claim set. The required fields are a fixed
// structural type; unknown claims in a presented token are ignored rather
// than carried into security-critical branches.
type Claims struct {
	jwt.RegisteredClaims

	UserID   string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Codec encodes a claim set into a signed, expiring token string and decodes
// a token string back into a verified claim set. The secret and TTL are
// read-only process-wide configuration; a Codec is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewCodec creates a token codec. The secret must be non-empty; enforcing
// that at startup is config.Validate's job.
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the configured time-to-live.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode signs the principal's claims with expiry = now + TTL.
func (c *Codec) Encode(p Principal) (string, error) {
	now := c.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   p.ID,
		Username: p.Username,
		Email:    p.Email,
		Role:     string(p.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("encoding session token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry of a token string and returns the
// claim set. Returns ErrTokenExpired or ErrTokenInvalid on failure.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return claims, nil
}
