package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the tables and indexes. It is idempotent.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			doc_type TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			hash TEXT NOT NULL,
			indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			doc_type TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			type TEXT NOT NULL,
			number TEXT NOT NULL DEFAULT '',
			article_number INTEGER NOT NULL DEFAULT 0,
			inciso_number TEXT NOT NULL DEFAULT '',
			parent_id TEXT NOT NULL DEFAULT '',
			heading TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			folded_text TEXT NOT NULL,
			keywords TEXT NOT NULL DEFAULT '[]',
			refs TEXT NOT NULL DEFAULT '[]',
			flags TEXT NOT NULL DEFAULT '{}',
			FOREIGN KEY (doc_type) REFERENCES documents(doc_type) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_article ON chunks (doc_type, article_number);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_hierarchy ON chunks (doc_type, type, number);`,
		`CREATE TABLE IF NOT EXISTS zone_parameters (
			neighborhood TEXT NOT NULL,
			neighborhood_folded TEXT NOT NULL,
			zone_code TEXT NOT NULL,
			height_max REAL,
			far_basic REAL,
			far_max REAL,
			occupancy_rate REAL,
			permeability_rate REAL,
			setback REAL,
			PRIMARY KEY (neighborhood, zone_code)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_zone_parameters_zone ON zone_parameters (zone_code);`,
		`CREATE TABLE IF NOT EXISTS risk_areas (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			neighborhood TEXT NOT NULL,
			neighborhood_folded TEXT NOT NULL,
			category TEXT NOT NULL,
			level TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS query_cache (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS interactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL DEFAULT '',
			query TEXT NOT NULL,
			response TEXT NOT NULL,
			confidence REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions (session_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
