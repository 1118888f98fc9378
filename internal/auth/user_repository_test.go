package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestUserRepository_CreateAndGetByID(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	hash, _ := HashPassword("password123")
	user := &User{
		Username:     "gv.lan",
		DisplayName:  "Cô Lan",
		PasswordHash: hash,
		Role:         RoleEditor,
		IsActive:     true,
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(user.ID, "usr-") {
		t.Fatalf("Create() ID = %q, want usr- prefix", user.ID)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.Username != "gv.lan" {
		t.Errorf("Username = %q, want %q", got.Username, "gv.lan")
	}
	if got.DisplayName != "Cô Lan" {
		t.Errorf("DisplayName = %q, want %q", got.DisplayName, "Cô Lan")
	}
	if got.Role != RoleEditor {
		t.Errorf("Role = %q, want %q", got.Role, RoleEditor)
	}
	if !got.IsActive {
		t.Error("IsActive should be true")
	}
	if got.PasswordHash != hash {
		t.Error("PasswordHash should round-trip")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be populated")
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db := testDB(t)
	user := seedTestUser(t, db, "admin", "Passw0rd!", RoleAdmin)

	got, err := NewUserRepository(db).GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("ID = %q, want %q", got.ID, user.ID)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByUsername(ctx, "nonexistent"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByID(ctx, "usr-missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
	if err := repo.UpdatePassword(ctx, "usr-missing", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdatePassword() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db := testDB(t)
	seedTestUser(t, db, "duplicate", "Passw0rd!", RoleEditor)

	err := NewUserRepository(db).Create(context.Background(), &User{
		Username:     "duplicate",
		DisplayName:  "User 2",
		PasswordHash: "x",
		Role:         RoleEditor,
		IsActive:     true,
	})
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("Create() error = %v, want ErrUsernameExists", err)
	}
}

func TestUserRepository_CreateRejectsUnknownRole(t *testing.T) {
	db := testDB(t)
	err := NewUserRepository(db).Create(context.Background(), &User{
		Username: "ghost", DisplayName: "Ghost", PasswordHash: "x", Role: "owner",
	})
	if err == nil {
		t.Fatal("Create() with unknown role should fail")
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := seedTestUser(t, db, "editor", "Passw0rd!", RoleEditor)

	newHash, _ := HashPassword("N3wPassword")
	if err := repo.UpdatePassword(ctx, user.ID, newHash); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	ok, _ := VerifyPassword("N3wPassword", got.PasswordHash)
	if !ok {
		t.Error("new password should verify after update")
	}
}

func TestUserRepository_Count(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}

	seedTestUser(t, db, "a", "Passw0rd!", RoleAdmin)
	seedTestUser(t, db, "b", "Passw0rd!", RoleEditor)

	count, _ = repo.Count(ctx)
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestUserRepository_InactiveAndClock(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	fixed := time.Date(2026, 9, 5, 7, 30, 15, 999, time.FixedZone("ICT", 7*3600))
	repo.now = func() time.Time { return fixed }

	user := &User{Username: "gv.cu", DisplayName: "Thầy Cũ", PasswordHash: "x", Role: RoleEditor}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByUsername(context.Background(), "gv.cu")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.IsActive {
		t.Error("IsActive = true, want false")
	}
	want := time.Date(2026, 9, 5, 0, 30, 15, 0, time.UTC)
	if !got.CreatedAt.Equal(want) || !got.UpdatedAt.Equal(want) {
		t.Errorf("timestamps = %v / %v, want %v", got.CreatedAt, got.UpdatedAt, want)
	}
}
