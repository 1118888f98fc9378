// Package database owns the SQLite file behind the API: connection setup
// through go-sqlite3 and forward/backward schema migrations read from an
// fs.FS.
//
// Migration files are named VERSION_name.up.sql with an optional
// VERSION_name.down.sql, where VERSION is YYYYMMDD_HHMMSS. Applied
// versions are tracked in schema_migrations.
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	err = db.Migrate(ctx)
package database
