// Package cache provides an optional on-disk cache of canonical citations
// keyed by DOI, so repeated runs over overlapping bibliographies don't
// re-fetch records the services already answered.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite citation cache.
type DB struct {
	db *sql.DB
}

// Open opens or creates a citation cache at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the cache.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS citations (
			doi        TEXT PRIMARY KEY,
			bibtex     TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the cached citation for a DOI, with found=false on a miss.
func (d *DB) Get(doi string) (string, bool, error) {
	var bibtex string
	err := d.db.QueryRow(`SELECT bibtex FROM citations WHERE doi = ?`, doi).Scan(&bibtex)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying cache: %w", err)
	}
	return bibtex, true, nil
}

// Put stores (or refreshes) the citation for a DOI.
func (d *DB) Put(doi, bibtex string) error {
	_, err := d.db.Exec(
		`INSERT OR REPLACE INTO citations (doi, bibtex, fetched_at) VALUES (?, ?, ?)`,
		doi, bibtex, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}
