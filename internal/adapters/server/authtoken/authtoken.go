// Package authtoken issues and verifies the HS256 bearer tokens used by the HTTP API.
package authtoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultTTL is the token lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

const issuer = "taskopia"

var (
	// ErrMissingAuthorization reports a request without an Authorization header.
	ErrMissingAuthorization = errors.New("missing authorization header")
	// ErrBadAuthorization reports a header that is not a bearer token.
	ErrBadAuthorization = errors.New("bad auth header")
	// ErrInvalidToken reports a token that fails signature or claim checks.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the signed-in user carried by a token.
type Identity struct {
	UserID   string
	Name     string
	Email    string
	TeamCode string
	IsAdmin  bool
}

type claims struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	TeamCode string `json:"team_code,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with one shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// New returns an Issuer. An empty secret is rejected.
func New(secret string, ttl time.Duration) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// Issue signs a token for id and returns it with its expiry.
func (i *Issuer) Issue(id Identity) (string, time.Time, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return "", time.Time{}, errors.New("token subject is required")
	}
	now := i.now().UTC()
	expires := now.Add(i.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:     id.Name,
		Email:    id.Email,
		TeamCode: id.TeamCode,
		IsAdmin:  id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses a raw token and returns its identity.
func (i *Issuer) Verify(raw string) (Identity, error) {
	var c claims
	_, err := i.parser.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !c.VerifyIssuer(issuer, true) {
		return Identity{}, fmt.Errorf("%w: unexpected issuer", ErrInvalidToken)
	}
	if strings.TrimSpace(c.Subject) == "" {
		return Identity{}, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return Identity{
		UserID:   c.Subject,
		Name:     c.Name,
		Email:    c.Email,
		TeamCode: c.TeamCode,
		IsAdmin:  c.IsAdmin,
	}, nil
}

// FromAuthHeader verifies the bearer token in an Authorization header value.
func (i *Issuer) FromAuthHeader(h string) (Identity, error) {
	h = strings.TrimSpace(h)
	if h == "" {
		return Identity{}, ErrMissingAuthorization
	}
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return Identity{}, ErrBadAuthorization
	}
	raw := strings.TrimSpace(h[len(prefix):])
	if strings.Count(raw, ".") != 2 {
		return Identity{}, ErrBadAuthorization
	}
	return i.Verify(raw)
}
