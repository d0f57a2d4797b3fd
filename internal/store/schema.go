package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

const ddl = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS records (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         TEXT NOT NULL UNIQUE,
    document   TEXT NOT NULL,
    metadata   TEXT NOT NULL DEFAULT '{}',
    indexed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_records USING vec0(
    seq INTEGER PRIMARY KEY,
    embedding float[%d]
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const metaDimensions = "dimensions"

// Init creates the schema tables if they don't exist and pins the embedding
// dimension. Reopening a database with a different dimension fails with
// ErrDimensionMismatch.
func Init(db *sql.DB, dims int) error {
	if _, err := db.Exec(fmt.Sprintf(ddl, dims)); err != nil {
		return err
	}
	var stored string
	err := db.QueryRow("SELECT value FROM meta WHERE key = ?", metaDimensions).Scan(&stored)
	if err == sql.ErrNoRows {
		_, err = db.Exec("INSERT INTO meta (key, value) VALUES (?, ?)", metaDimensions, strconv.Itoa(dims))
		return err
	}
	if err != nil {
		return err
	}
	if stored != strconv.Itoa(dims) {
		return fmt.Errorf("%w: database has %s, configured %d", ErrDimensionMismatch, stored, dims)
	}
	return nil
}
