package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionTTL is used when a Gate is created with a non-positive TTL.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Claims extends the registered JWT claims with the session's identity.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Gate issues and verifies HS256 session tokens.
//
// Thread Safety:
//   - Safe for concurrent use; a Gate is immutable after construction.
type Gate struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// GateOption customises a Gate.
type GateOption func(*Gate)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// NewGate creates a Gate signing with secret. Tokens expire after ttl.
func NewGate(secret string, ttl time.Duration, opts ...GateOption) *Gate {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	g := &Gate{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(g.now),
	)
	return g
}

// TTL returns the lifetime of issued sessions.
func (g *Gate) TTL() time.Duration {
	return g.ttl
}

// IssueSession creates a signed token for the given identity.
//
// Returns:
//   - string: The compact JWT
//   - *Session: The session the token encodes
//   - error: If the role is unknown or signing fails
func (g *Gate) IssueSession(subjectID, username string, role Role) (string, *Session, error) {
	if !IsValidRole(role) {
		return "", nil, fmt.Errorf("issuing session: unknown role %q", role)
	}

	now := g.now().Truncate(time.Second)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
			ID:        uuid.NewString(),
		},
		Username: username,
		Role:     role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing session token: %w", err)
	}
	return signed, claims.session(), nil
}

// VerifySession validates a token and returns its session.
//
// Returns ErrNoToken for an empty token, ErrTokenExpired once the expiry has
// passed, and ErrTokenInvalid for anything else that fails (signature,
// algorithm, shape, missing subject or unknown role).
func (g *Gate) VerifySession(token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	var claims Claims
	_, err := g.parser.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return g.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if !IsValidRole(claims.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}

	return claims.session(), nil
}

// RequireRole returns ErrForbidden unless the session holds one of allowed.
func RequireRole(s *Session, allowed ...Role) error {
	if s == nil {
		return ErrNoToken
	}
	if !slices.Contains(allowed, s.Role) {
		return ErrForbidden
	}
	return nil
}

func (c *Claims) session() *Session {
	s := &Session{
		ID:        c.ID,
		SubjectID: c.Subject,
		Username:  c.Username,
		Role:      c.Role,
	}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}
