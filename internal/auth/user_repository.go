package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// UserRepository is the account storage the gate signs users in against.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Count(ctx context.Context) (int, error)
}

// SQLiteUserRepository keeps accounts in the users table.
type SQLiteUserRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db, now: time.Now}
}

const selectUser = `SELECT id, username, display_name, password_hash, role, is_active, created_at, updated_at FROM users WHERE `

// Create stores user, assigning an id when it has none. Timestamps are
// set here and truncated to whole seconds.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if !IsValidRole(user.Role) {
		return fmt.Errorf("creating user %q: unknown role %q", user.Username, user.Role)
	}
	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()[:8]
	}
	user.CreatedAt = r.now().UTC().Truncate(time.Second)
	user.UpdatedAt = user.CreatedAt
	stamp := user.CreatedAt.Format(time.RFC3339)

	active := 0
	if user.IsActive {
		active = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, display_name, password_hash, role, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.DisplayName, user.PasswordHash, user.Role, active, stamp, stamp)

	var se sqlite3.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique:
		return ErrUsernameExists
	default:
		return fmt.Errorf("creating user %q: %w", user.Username, err)
	}
}

func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.one(ctx, "id = ?", id)
}

func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.one(ctx, "username = ?", username)
}

func (r *SQLiteUserRepository) one(ctx context.Context, where string, arg any) (*User, error) {
	var (
		u        User
		active   int
		from, to string
	)
	err := r.db.QueryRowContext(ctx, selectUser+where, arg).Scan(
		&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Role, &active, &from, &to)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	u.IsActive = active != 0
	u.CreatedAt, _ = time.Parse(time.RFC3339, from)
	u.UpdatedAt, _ = time.Parse(time.RFC3339, to)
	return &u, nil
}

// UpdatePassword replaces the stored hash for id.
func (r *SQLiteUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, r.now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
