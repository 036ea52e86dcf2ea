// Package auth issues and verifies the signed tokens that identify a user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"quiz-generator-service/internal/domain"
)

const defaultTokenTTL = 24 * time.Hour

// ErrTokenRevoked is returned for a token that was signed out.
var ErrTokenRevoked = errors.New("token revoked")

// Claims are the JWT claims carried by a session token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RevocationList remembers signed-out token ids until they would have expired.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Option customizes an Authenticator.
type Option func(*Authenticator)

func WithIssuer(issuer string) Option {
	return func(a *Authenticator) { a.issuer = issuer }
}

func WithRevocations(list RevocationList) Option {
	return func(a *Authenticator) { a.revocations = list }
}

func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.clock = now }
}

// Authenticator signs HS256 tokens and resolves them back to users.
type Authenticator struct {
	secret      []byte
	ttl         time.Duration
	issuer      string
	revocations RevocationList
	clock       func() time.Time
}

func New(secret string, ttl time.Duration, opts ...Option) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("auth secret not configured")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	a := &Authenticator{
		secret:      []byte(secret),
		ttl:         ttl,
		issuer:      "quiz-generator-service",
		revocations: NewMemoryRevocations(),
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Issue signs a token for user and returns it with its expiry.
func (a *Authenticator) Issue(user domain.User) (string, time.Time, error) {
	if strings.TrimSpace(user.ID) == "" {
		return "", time.Time{}, fmt.Errorf("issue token: user id is required")
	}
	now := a.clock()
	expires := now.Add(a.ttl)
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Authenticate verifies raw and returns the user it was issued to.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (domain.User, error) {
	claims, err := a.parse(raw)
	if err != nil {
		return domain.User{}, err
	}
	revoked, err := a.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, ErrTokenRevoked)
	}
	return domain.User{ID: claims.Subject, Username: claims.Username}, nil
}

// SignOut revokes raw for the rest of its lifetime.
func (a *Authenticator) SignOut(ctx context.Context, raw string) error {
	claims, err := a.parse(raw)
	if err != nil {
		return err
	}
	return a.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (a *Authenticator) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%w: malformed token", domain.ErrUnauthenticated)
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
	default:
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: token without subject", domain.ErrUnauthenticated)
	}
	return claims, nil
}

// MemoryRevocations is the process-local RevocationList.
type MemoryRevocations struct {
	mu      sync.Mutex
	clock   func() time.Time
	revoked map[string]time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{clock: time.Now, revoked: make(map[string]time.Time)}
}

func (m *MemoryRevocations) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	for id, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, id)
		}
	}
	m.revoked[tokenID] = until
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[tokenID]
	return ok && until.After(m.clock()), nil
}
