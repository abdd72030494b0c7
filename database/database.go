package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"visdedupe/logging"
	"visdedupe/types"

	_ "github.com/mattn/go-sqlite3"
)

// CachedFingerprint is a stored fingerprint and preview for one file version
type CachedFingerprint struct {
	Path        string
	Size        int64
	ModifiedAt  time.Time
	MaxSide     int
	Fingerprint types.Fingerprint
	Preview     string
}

// InitDatabase opens the fingerprint cache at dbPath, creating the schema if
// needed.
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Lookups and stores are serialized by the accumulator anyway
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS fingerprints (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		modified_at TEXT NOT NULL,
		max_side INTEGER NOT NULL,
		hash TEXT NOT NULL,
		thumb TEXT,
		updated_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_hash ON fingerprints(hash);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create cache schema in %s: %w", dbPath, err)
	}

	// Caches written before thumbnails were stored lack the column
	var hasThumbColumn bool
	err = db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('fingerprints') WHERE name='thumb'").Scan(&hasThumbColumn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error checking for thumb column: %w", err)
	}
	if !hasThumbColumn {
		if _, err = db.Exec("ALTER TABLE fingerprints ADD COLUMN thumb TEXT;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("error adding thumb column: %w", err)
		}
		logging.DebugLog("Added 'thumb' column to existing cache schema")
	}

	return db, nil
}

// LookupFingerprint returns the cached entry for file if its size,
// modification time and normalization bound all still match. A stale or
// missing entry yields ok=false.
func LookupFingerprint(db *sql.DB, file types.SourceFile, maxSide int) (CachedFingerprint, bool, error) {
	var (
		entry      CachedFingerprint
		storedMod  string
		storedHash string
		thumb      sql.NullString
	)
	err := db.QueryRow(
		"SELECT path, size, modified_at, max_side, hash, thumb FROM fingerprints WHERE path = ?",
		file.Path,
	).Scan(&entry.Path, &entry.Size, &storedMod, &entry.MaxSide, &storedHash, &thumb)
	if errors.Is(err, sql.ErrNoRows) {
		return entry, false, nil
	}
	if err != nil {
		return entry, false, fmt.Errorf("database error for %s: %w", file.Path, err)
	}

	entry.ModifiedAt, err = time.Parse(time.RFC3339Nano, storedMod)
	if err != nil {
		return entry, false, fmt.Errorf("cannot parse stored time for %s: %w", file.Path, err)
	}
	if entry.Size != file.Size || entry.MaxSide != maxSide || !entry.ModifiedAt.Equal(file.ModTime) {
		logging.DebugLog("Cache entry for %s is stale", file.Path)
		return entry, false, nil
	}

	entry.Fingerprint, err = types.ParseFingerprint(storedHash)
	if err != nil {
		return entry, false, fmt.Errorf("corrupt cache entry for %s: %w", file.Path, err)
	}
	entry.Preview = thumb.String
	return entry, true, nil
}

// StoreFingerprint inserts or replaces the cache entry for a file
func StoreFingerprint(db *sql.DB, entry CachedFingerprint) error {
	stmt, err := db.Prepare(`
		INSERT OR REPLACE INTO fingerprints (
			path, size, modified_at, max_side, hash, thumb, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement for %s: %w", entry.Path, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		entry.Path,
		entry.Size,
		entry.ModifiedAt.UTC().Format(time.RFC3339Nano),
		entry.MaxSide,
		entry.Fingerprint.String(),
		entry.Preview,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cannot insert data for %s: %w", entry.Path, err)
	}
	return nil
}

// CacheStats contains statistics about the cache contents
type CacheStats struct {
	Entries      int
	UniqueHashes int
}

// GetCacheStats retrieves statistics about cached fingerprints
func GetCacheStats(db *sql.DB) (*CacheStats, error) {
	var stats CacheStats

	if err := db.QueryRow("SELECT COUNT(*) FROM fingerprints").Scan(&stats.Entries); err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}
	if err := db.QueryRow("SELECT COUNT(DISTINCT hash) FROM fingerprints").Scan(&stats.UniqueHashes); err != nil {
		return nil, fmt.Errorf("failed to get unique hashes: %w", err)
	}
	return &stats, nil
}
