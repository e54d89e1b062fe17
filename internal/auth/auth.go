// Package auth gates the admin routes. Collections never check identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var ErrUnauthenticated = errors.New("not authenticated")

type Identity struct {
	Subject string
	Email   string
	Expires time.Time
}

type Authenticator interface {
	CheckAuth(ctx context.Context, token string) (Identity, error)
}

// JWT verifies HS256 tokens signed with a shared secret.
type JWT struct {
	secret []byte
	now    func() time.Time
}

func NewJWT(secret string) *JWT {
	return &JWT{secret: []byte(secret), now: time.Now}
}

type claims struct {
	Email string `json:"email,omitempty"`
	gojwt.RegisteredClaims
}

// Issue signs a token for subject valid for ttl.
func (j *JWT) Issue(subject, email string, ttl time.Duration) (string, error) {
	if len(j.secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	now := j.now()
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(j.secret)
}

func (j *JWT) CheckAuth(ctx context.Context, token string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" || len(j.secret) == 0 {
		return Identity{}, ErrUnauthenticated
	}

	parser := gojwt.NewParser(
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(j.now),
	)
	var c claims
	if _, err := parser.ParseWithClaims(token, &c, func(*gojwt.Token) (any, error) { return j.secret, nil }); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	id := Identity{Subject: c.Subject, Email: c.Email}
	if c.ExpiresAt != nil {
		id.Expires = c.ExpiresAt.Time
	}
	return id, nil
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
