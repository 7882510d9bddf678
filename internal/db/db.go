// Package db stores pipeline runs in SQLite: the run parameters, the
// feature table and optionally the per-window persistence diagrams.
//
// The schema is managed with golang-migrate from migrations embedded in
// the binary.
package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"foreign_keys(1)",
}

type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the SQLite database at path. It does not
// migrate; call MigrateUp before use.
func Open(path string) (*DB, error) {
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	dsn := "file:" + path + "?" + strings.Join(params, "&")

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return &DB{sqlDB}, nil
}

// OpenMigrated opens path and applies every embedded migration.
func OpenMigrated(path string) (*DB, error) {
	database, err := Open(path)
	if err != nil {
		return nil, err
	}
	migrations, err := MigrationsFS()
	if err != nil {
		database.Close()
		return nil, err
	}
	if err := database.MigrateUp(migrations); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// MigrationsFS returns the embedded migrations rooted at the migrations
// directory.
func MigrationsFS() (fs.FS, error) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return sub, nil
}
