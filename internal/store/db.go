package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// busyTimeoutMS lets a watch daemon and a one-shot command share the file
// without failing on SQLITE_BUSY.
const busyTimeoutMS = 5000

// DB is the feedbackrank SQLite store: imported suggestions and client
// profiles, versioned scoring configurations and tracked pass snapshots.
type DB struct {
	conn *sql.DB
}

// Open opens the database at path, creating the file and its parent
// directory when missing, and migrates it to the current schema.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	return open(path, "journal_mode(WAL)", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
}

// OpenInMemory opens a private in-memory database. Tests use it.
func OpenInMemory() (*DB, error) {
	return open(":memory:")
}

// open applies pragmas through the DSN so that every pooled connection
// gets them, not only the first.
func open(name string, pragmas ...string) (*DB, error) {
	q := url.Values{}
	for _, p := range append([]string{"foreign_keys(1)"}, pragmas...) {
		q.Add("_pragma", p)
	}
	conn, err := sql.Open("sqlite", name+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if name == ":memory:" {
		// A second connection would see a different, empty database.
		conn.SetMaxOpenConns(1)
	}

	db := &DB{conn: conn}
	if err := db.Migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrating %s: %w", name, err)
	}
	return db, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.conn.Close()
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (db *DB) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
