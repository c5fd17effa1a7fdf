package authenticator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/rlsnotes/pkg/identity"
)

var (
	// ErrMissingSecret is returned when no signing secret is configured
	ErrMissingSecret = errors.New("token secret is required")
	// ErrInvalidToken is returned for any token that fails verification
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidSubject is returned when the subject is not a positive user id
	ErrInvalidSubject = errors.New("token subject is not a user id")
)

// Authenticator turns a bearer token into an identity
type Authenticator interface {
	// Name returns the authenticator name
	Name() string

	// Authenticate validates a raw bearer token
	Authenticate(ctx context.Context, token string) (*identity.Identity, error)
}

// Token issues and verifies HS256 bearer tokens whose subject is a user id
type Token struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

var _ Authenticator = (*Token)(nil)

// NewToken creates a token authenticator
func NewToken(secret, issuer string, ttl time.Duration) (*Token, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &Token{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Name returns the authenticator name
func (t *Token) Name() string {
	return "bearer"
}

// Issue mints a token for userID that expires after ttl. A non-positive ttl
// uses the configured lifetime.
func (t *Token) Issue(userID int64, ttl time.Duration) (string, time.Time, error) {
	if userID <= 0 {
		return "", time.Time{}, ErrInvalidSubject
	}
	if ttl <= 0 {
		ttl = t.ttl
	}

	now := t.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Authenticate verifies signature, issuer and expiry and returns the caller
func (t *Token) Authenticate(_ context.Context, token string) (*identity.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, ok := identity.ParseSubject(claims.Subject)
	if !ok {
		return nil, ErrInvalidSubject
	}

	id := identity.New(userID)
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
