package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/estatehub/listingguard/internal/errors"
)

const componentName = "auth"

// clockSkew tolerated on exp/nbf/iat
const clockSkew = 30 * time.Second

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Resolver verifies bearer tokens signed with a shared HS256 secret.
type Resolver struct {
	secret []byte
	issuer string
}

// NewResolver creates a resolver. issuer is checked only when non-empty.
func NewResolver(secret, issuer string) (*Resolver, error) {
	if secret == "" {
		return nil, errors.Newf("jwt secret is required").
			Category(errors.CategoryConfiguration).
			Component(componentName).
			Build()
	}
	return &Resolver{secret: []byte(secret), issuer: issuer}, nil
}

// Resolve verifies raw and returns the principal it names.
func (r *Resolver) Resolve(raw string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkew),
		jwt.WithExpirationRequired(),
	}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}

	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, unauthorized("invalid token: %v", err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Principal{}, unauthorized("invalid token claims")
	}
	if strings.TrimSpace(c.Subject) == "" {
		return Principal{}, unauthorized("token has no subject")
	}
	role := Role(c.Role)
	if !role.Valid() {
		return Principal{}, unauthorized("token has unknown role %q", c.Role)
	}

	return Principal{ID: c.Subject, Role: role}, nil
}

// Issue signs a token for p valid for ttl. Used by the token command and tests.
func (r *Resolver) Issue(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    r.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(r.secret)
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryGeneric).
			Component(componentName).
			Build()
	}
	return signed, nil
}

func unauthorized(format string, args ...any) error {
	return errors.Newf(format, args...).
		Category(errors.CategoryUnauthorized).
		Component(componentName).
		Build()
}
