// Package token issues and verifies the signed JWTs used for sessions and
// password resets.
package token

import (
	"errors"
	"fmt"
	"time"

	"shopie/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess        = "access"
	TypePasswordReset = "password-reset"

	// RefreshWindow is how long before expiry clients should refresh a session.
	RefreshWindow = 5 * time.Minute

	DefaultAccessExpiry = 7 * 24 * time.Hour
	DefaultResetExpiry  = time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims is the JWT payload: sub is the user ID
type Claims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	Type  string      `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Manager signs and verifies HS256 tokens
type Manager struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

// NewManager creates a Manager. Non-positive TTLs fall back to the defaults.
func NewManager(secret string, accessTTL, resetTTL time.Duration) *Manager {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessExpiry
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetExpiry
	}
	return &Manager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

// WithClock returns a copy of m that reads time from now.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

// Now is the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}

// IssueAccess signs a session token for u.
func (m *Manager) IssueAccess(u *domain.User) (string, time.Time, error) {
	return m.issue(u, TypeAccess, m.accessTTL)
}

// IssueReset signs a single-purpose password reset token for u.
func (m *Manager) IssueReset(u *domain.User) (string, time.Time, error) {
	return m.issue(u, TypePasswordReset, m.resetTTL)
}

func (m *Manager) issue(u *domain.User, typ string, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Email: u.Email,
		Role:  u.Role,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies a session token.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseReset verifies a password reset token.
func (m *Manager) ParseReset(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TypePasswordReset {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsValid reports whether claims carry an expiry that is still in the future.
func IsValid(c *Claims, now time.Time) bool {
	return c != nil && c.ExpiresAt != nil && now.Before(c.ExpiresAt.Time)
}

// NeedsRefresh reports whether a still-valid token is inside RefreshWindow.
func NeedsRefresh(c *Claims, now time.Time) bool {
	return IsValid(c, now) && c.ExpiresAt.Time.Sub(now) <= RefreshWindow
}
