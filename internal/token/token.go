// Package token encodes and verifies signed session tokens: an issuer,
// a subject (user id), an issued-at time, and an expiry.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the default lifetime of a minted token.
const DefaultTTL = time.Hour

// Claims is the decoded, user-facing shape of a session token.
type Claims struct {
	Issuer    string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// registeredClaims is the wire shape signed by jwt/v5; it carries nothing
// beyond the standard registered fields since sub/iss/iat/exp are all
// that spec.md's TokenCodec claims structure requires.
type registeredClaims struct {
	jwt.RegisteredClaims
}

// Kind distinguishes why Decode rejected a token, each mapped to a
// distinct HTTP 401 message at the API boundary.
type Kind string

const (
	KindInvalidToken     Kind = "InvalidToken"
	KindInvalidSignature Kind = "InvalidSignature"
	KindInvalidIssuer    Kind = "InvalidIssuer"
	KindExpired          Kind = "Expired"
)

// Error is returned by Decode; Kind identifies the decode failure class.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Codec encodes and decodes session tokens signed with HMAC-SHA256 under
// a single server-side secret.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewCodec constructs a Codec. ttl <= 0 falls back to DefaultTTL.
func NewCodec(secret, issuer string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Encode mints a new signed token for subject (the user id), with iat=now
// and exp=now+ttl.
func (c *Codec) Encode(subject string) (string, error) {
	now := time.Now()
	claims := registeredClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature, issuer, and expiry of tokenString and
// returns its claims. Every rejection reason is a distinct *Error Kind.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, newError(KindInvalidToken, "token is empty")
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &registeredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(c.issuer))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, newError(KindExpired, "token has expired")
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, newError(KindInvalidSignature, "signature mismatch")
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, newError(KindInvalidIssuer, "issuer mismatch")
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, newError(KindInvalidToken, "malformed token")
		default:
			return nil, newError(KindInvalidToken, "invalid token")
		}
	}

	if !parsed.Valid {
		return nil, newError(KindInvalidToken, "invalid token")
	}

	rc, ok := parsed.Claims.(*registeredClaims)
	if !ok {
		return nil, newError(KindInvalidToken, "invalid token claims")
	}

	claims := &Claims{
		Issuer:  rc.Issuer,
		Subject: rc.Subject,
	}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time
	}
	return claims, nil
}
