package auth

import (
	"errors"
	"slices"
	"time"
)

// Role represents an authorisation tier.
type Role string

const (
	// RoleEditor can create, update and delete site content and upload media.
	RoleEditor Role = "editor"

	// RoleAdmin can do everything an editor can plus manage its own
	// credentials, read the audit trail and system metrics.
	RoleAdmin Role = "admin"
)

// ValidRoles lists the roles a session or account may carry.
var ValidRoles = []Role{RoleAdmin, RoleEditor}

// IsValidRole returns true if r is a known role.
func IsValidRole(r Role) bool {
	return slices.Contains(ValidRoles, r)
}

// User is a stored account allowed to sign in.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is the verified content of a session token. It is never persisted.
type Session struct {
	ID        string
	SubjectID string
	Username  string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Sentinel errors for auth operations.
var (
	ErrNoToken            = errors.New("no token provided")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidPassword    = errors.New("current password is incorrect")
	ErrWeakPassword       = errors.New("password does not meet strength requirements")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
)

// WeakPasswordError lists the strength rules a new password failed.
// errors.Is(err, ErrWeakPassword) reports true for it.
type WeakPasswordError struct {
	Unmet []string
}

func (e *WeakPasswordError) Error() string {
	return ErrWeakPassword.Error()
}

func (e *WeakPasswordError) Is(target error) bool {
	return target == ErrWeakPassword
}
