package auth

import (
	"database/sql"
	"testing"

	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
	"github.com/huongkhe/schoolsite/internal/infrastructure/database"
	"github.com/huongkhe/schoolsite/migrations"
)

// testDB opens an in-memory database with all migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	database.MigrationsFS = migrations.FS
	if err := db.Migrate(t.Context()); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	return db.DB
}

// seedTestUser inserts an active user with the given password and returns it.
func seedTestUser(t *testing.T, db *sql.DB, username, password string, role Role) *User {
	t.Helper()

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	user := &User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := NewUserRepository(db).Create(t.Context(), user); err != nil {
		t.Fatalf("creating test user %s: %v", username, err)
	}
	return user
}
