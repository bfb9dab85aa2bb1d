// Package database provides SQLite connectivity for the device journal.
//
// It handles:
//   - Opening a file database in WAL mode, or a pinned in-memory database
//   - Schema migrations read from any fs.FS (normally the embedded
//     migrations package)
//   - Health checks and lifecycle management
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive and forward-only. Only .up.sql files are read.
package database
