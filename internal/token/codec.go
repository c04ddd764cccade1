// Package token issues and verifies the signed bearer tokens that every
// service checks on its own. A token is an HS256 JWT carrying the subject's
// email, numeric id, issue time and expiry; validity is recomputed from the
// token and the shared secret on every check, nothing is stored.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultLifetime is how long an issued token stays valid.
const DefaultLifetime = 24 * time.Hour

// MinSecretLength is the shortest signing secret NewCodec accepts.
const MinSecretLength = 32

// ErrInvalidToken is the only error callers outside this package should
// branch on. Expired, corrupt and mis-signed tokens all wrap it; the wrapped
// cause is meant for logs.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload.
type Claims struct {
	UserID uint64 `json:"uid"`
	jwt.RegisteredClaims
}

// Email returns the subject natural key.
func (c *Claims) Email() string { return c.Subject }

// Token is an issued credential.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies tokens with one symmetric secret.
type Codec struct {
	secret   []byte
	lifetime time.Duration
}

// NewCodec builds a codec. The secret must be identical across every
// service that verifies tokens.
func NewCodec(secret string, lifetime time.Duration) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("token: signing secret must be at least %d bytes", MinSecretLength)
	}
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Codec{secret: []byte(secret), lifetime: lifetime}, nil
}

// Lifetime returns the configured token lifetime.
func (c *Codec) Lifetime() time.Duration { return c.lifetime }

// Issue signs a token for the subject. It has no side effects.
func (c *Codec) Issue(email string, userID uint64, now time.Time) (Token, error) {
	issued := now.UTC().Truncate(time.Second)
	exp := issued.Add(c.lifetime)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("token: signing: %w", err)
	}
	return Token{Value: signed, IssuedAt: issued, ExpiresAt: exp}, nil
}

// Verify checks signature and expiry as of now and returns the claims.
// A token is rejected once now reaches its expiry.
func (c *Codec) Verify(raw string, now time.Time) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &Claims{}
	tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, fmt.Errorf("%w: not valid", ErrInvalidToken)
	}
	if claims.Subject == "" || claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// ExtractSubjectID reads the subject id without checking the signature.
// Only call it on a token that has already passed Verify.
func ExtractSubjectID(raw string) (uint64, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.UserID == 0 {
		return 0, fmt.Errorf("%w: missing subject id", ErrInvalidToken)
	}
	return claims.UserID, nil
}

// IsExpired reports whether a verification error was caused by expiry.
// Use it for log fields only; responses must not distinguish the cases.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
