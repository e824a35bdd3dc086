package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Entry is one archived copy of a definitions file.
type Entry struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Key        string    `json:"key"`
	Driver     Driver    `json:"driver"`
	SHA256     string    `json:"sha256"`
	Size       int64     `json:"size_bytes"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Ledger records archive runs in a single sqlite table.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens (or creates) the ledger database at path. ":memory:" is accepted.
func OpenLedger(path string) (*Ledger, error) {
	if path == "" {
		return nil, errors.New("ledger path required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// an in-memory database lives only as long as its connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS archive_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		blob_key TEXT NOT NULL,
		driver TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		size INTEGER NOT NULL,
		archived_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive_runs table: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Record(ctx context.Context, e Entry) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO archive_runs (id, source, blob_key, driver, sha256, size, archived_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Source, e.Key, string(e.Driver), e.SHA256, e.Size, e.ArchivedAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("insert archive run %s: %w", e.ID, err)
	}
	return nil
}

// List returns every recorded run, oldest first.
func (l *Ledger) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, source, blob_key, driver, sha256, size, archived_at FROM archive_runs ORDER BY archived_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select archive runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var (
			e      Entry
			driver string
			nanos  int64
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.Key, &driver, &e.SHA256, &e.Size, &nanos); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		e.Driver = Driver(driver)
		e.ArchivedAt = time.Unix(0, nanos).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (l *Ledger) Close() error { return l.db.Close() }
