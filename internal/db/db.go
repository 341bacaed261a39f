package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/clinicseo/internal/config"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// FileName is the database file inside the base directory.
const FileName = "clinicseo.db"

// Init initializes the SQLite database at baseDir/clinicseo.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.clinicseo.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// best-effort, may not work on all platforms
	_ = os.Chmod(baseDir, 0700)

	exportsDir := filepath.Join(baseDir, "exports")
	if err := os.MkdirAll(exportsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create exports directory: %w", err)
	}
	_ = os.Chmod(exportsDir, 0700)

	// Pragmas in the DSN apply to every pooled connection
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only non-zero values are applied.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: session templates and generation history
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS templates (
		  session_norm   TEXT PRIMARY KEY,
		  session_raw    TEXT NOT NULL,
		  template_text  TEXT NOT NULL,
		  updated_at     INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS generations (
		  id                 TEXT PRIMARY KEY,
		  session_raw        TEXT NOT NULL,
		  session_norm       TEXT NOT NULL,
		  clinic_name        TEXT NOT NULL,
		  slug               TEXT NOT NULL,
		  word_count         INTEGER NOT NULL,
		  profile_json       TEXT NOT NULL,
		  prompt_mode        TEXT NOT NULL,
		  prompt_text        TEXT NOT NULL,
		  content_html       TEXT NOT NULL,
		  content_words      INTEGER NOT NULL,
		  provider           TEXT NOT NULL,
		  model              TEXT NOT NULL,
		  prompt_tokens      INTEGER NOT NULL DEFAULT 0,
		  completion_tokens  INTEGER NOT NULL DEFAULT 0,
		  created_at         INTEGER NOT NULL,
		  deleted_at         INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_generations_session_created
		ON generations(session_norm, created_at DESC)
		WHERE deleted_at IS NULL;

		CREATE INDEX IF NOT EXISTS idx_generations_created
		ON generations(created_at DESC)
		WHERE deleted_at IS NULL;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
