// Package archive keeps a write-only SQLite copy of the messages the bot has
// seen. It is never read back at startup: conversation state lives in memory.
package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/pollbot/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// archivePragmas are applied to every connection opened by Open.
var archivePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// Open opens the archive at path, creating the file if needed, and migrates
// the schema to the latest version.
func Open(path string, logger *slog.Logger) (*sqlx.DB, error) {
	if path == "" {
		return nil, errors.New("archive path is empty")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := logger.With("component", "archive_db")

	db, err := sqlx.Open("sqlite", withPragmas(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	// One writer at a time; the archive task is the only writer anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to archive: %w", err)
	}

	version, err := migrateUp(db.DB, fileName(path))
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Info("Archive opened", "path", path, "schema_version", version)
	return db, nil
}

// Close closes db, logging rather than returning a failure.
func Close(db *sqlx.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.Close(); err != nil {
		logger.Error("Failed to close archive", "error", err)
	}
}

// migrateUp applies the embedded migrations and returns the resulting schema
// version.
func migrateUp(db *sql.DB, name string) (uint, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{DatabaseName: name})
	if err != nil {
		return 0, fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to migrate archive: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("archive schema version %d is dirty", version)
	}
	return version, nil
}

// withPragmas appends the archive pragmas to a path or file: DSN.
func withPragmas(path string) string {
	params := make([]string, 0, len(archivePragmas))
	for _, p := range archivePragmas {
		params = append(params, "_pragma="+url.QueryEscape(p))
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// fileName strips a file: prefix, the query and URL escaping from a DSN.
func fileName(dsn string) string {
	name := strings.TrimPrefix(dsn, "file:")
	name, _, _ = strings.Cut(name, "?")
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}
