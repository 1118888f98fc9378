package auth

import (
	"context"
	"errors"
	"fmt"
)

// Authenticator checks credentials against stored accounts.
type Authenticator struct {
	users UserRepository
}

// NewAuthenticator creates an Authenticator over a user repository.
func NewAuthenticator(users UserRepository) *Authenticator {
	return &Authenticator{users: users}
}

// Login returns the account matching username and password.
//
// An unknown username, a wrong password and an inactive account all return
// ErrInvalidCredentials, and an unknown username still pays for a hash
// verification so response time does not reveal which one it was.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*User, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		burnVerify(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password for %s: %w", user.ID, err)
	}
	if !ok || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Lookup returns the active account a session belongs to. A session whose
// account was removed or deactivated is reported as ErrTokenInvalid.
func (a *Authenticator) Lookup(ctx context.Context, s *Session) (*User, error) {
	user, err := a.users.GetByID(ctx, s.SubjectID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("%w: account no longer exists", ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is inactive", ErrTokenInvalid)
	}
	return user, nil
}

// ChangePassword replaces a user's password after checking the current one.
//
// Returns ErrInvalidPassword if current does not verify, and a
// *WeakPasswordError listing unmet rules if next is too weak.
func (a *Authenticator) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verifying password for %s: %w", user.ID, err)
	}
	if !ok {
		return ErrInvalidPassword
	}

	if unmet := CheckPasswordStrength(next); len(unmet) > 0 {
		return &WeakPasswordError{Unmet: unmet}
	}

	hash, err := HashPassword(next)
	if err != nil {
		return fmt.Errorf("hashing new password: %w", err)
	}
	if err := a.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("storing new password: %w", err)
	}
	return nil
}
