// Package migrations embeds the system database schema into the binary.
package migrations

import (
	"embed"

	"github.com/huongkhe/schoolsite/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

// FS exposes the embedded migration files.
var FS = migrationsFS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
