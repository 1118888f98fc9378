package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
)

// seedPasswordBytes is the number of random bytes for a generated password.
const seedPasswordBytes = 16

// SeedUsers creates the configured admin and editor accounts that do not
// exist yet. Existing accounts are never modified, so a password changed
// through the API survives restarts.
//
// An identity with neither password nor password_hash gets a random password,
// which is logged once and returned keyed by username.
func SeedUsers(ctx context.Context, repo UserRepository, cfg config.SecurityConfig, logger *slog.Logger) (map[string]string, error) {
	generated := make(map[string]string)

	seed := func(id config.IdentityConfig, role Role) error {
		if id.Username == "" {
			return nil
		}

		_, err := repo.GetByUsername(ctx, id.Username)
		if err == nil {
			logger.Debug("user exists, skipping seed", "username", id.Username)
			return nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("looking up %s: %w", id.Username, err)
		}

		hash, password, err := seedHash(id)
		if err != nil {
			return fmt.Errorf("seeding %s: %w", id.Username, err)
		}

		displayName := id.DisplayName
		if displayName == "" {
			displayName = id.Username
		}
		user := &User{
			Username:     id.Username,
			DisplayName:  displayName,
			PasswordHash: hash,
			Role:         role,
			IsActive:     true,
		}
		if err := repo.Create(ctx, user); err != nil {
			return fmt.Errorf("creating %s: %w", id.Username, err)
		}

		if password != "" {
			generated[id.Username] = password
			logger.Warn("seed account created with generated password",
				"username", id.Username,
				"role", role,
				"password", password,
				"action_required", "change this password immediately",
			)
			return nil
		}
		logger.Info("seed account created", "username", id.Username, "role", role)
		return nil
	}

	if err := seed(cfg.Admin, RoleAdmin); err != nil {
		return nil, err
	}
	for _, ed := range cfg.Editors {
		if err := seed(ed, RoleEditor); err != nil {
			return nil, err
		}
	}
	return generated, nil
}

// seedHash returns the hash to store for id, plus the generated plaintext
// when the identity carried no credentials.
func seedHash(id config.IdentityConfig) (hash, generated string, err error) {
	switch {
	case id.PasswordHash != "":
		if !IsSupportedHash(id.PasswordHash) {
			return "", "", errors.New("password_hash is not an argon2id or bcrypt hash")
		}
		return id.PasswordHash, "", nil
	case id.Password != "":
		hash, err = HashPassword(id.Password)
		return hash, "", err
	}

	b := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generating password: %w", err)
	}
	generated = hex.EncodeToString(b)
	hash, err = HashPassword(generated)
	return hash, generated, err
}
