// Package token mints and verifies the HS256 bearer tokens handed out on
// registration and login.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of a token when none is configured.
const DefaultTTL = 24 * time.Hour

var (
	ErrMissingSecret = errors.New("token: signing secret is required")
	ErrInvalidToken  = errors.New("token: invalid or expired")
)

// Subject is the identity a token is minted for.
type Subject struct {
	ID    string
	Email string
	Role  string
	Kind  string
}

// Claims is the decoded payload of a token.
type Claims struct {
	AccountID string `json:"id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	Kind      string `json:"kind"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a single process-wide secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for sub that expires after the issuer's TTL.
func (i *Issuer) Issue(sub Subject) (string, error) {
	now := i.now().UTC()
	claims := Claims{
		AccountID: sub.ID,
		Email:     sub.Email,
		Role:      sub.Role,
		Kind:      sub.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sub.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// Verify checks signature, algorithm and expiry and returns the claims.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.AccountID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying claims.
func NewContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

// FromContext returns the claims stored by NewContext, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}
