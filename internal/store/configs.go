package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// SaveScoringConfig validates cfg, stores it as a new version and makes it
// the active one. Stored versions are never modified.
func (db *DB) SaveScoringConfig(cfg *scoring.Configuration, note string) (*ConfigVersion, error) {
	body, err := scoring.Encode(cfg, scoring.FormatJSON)
	if err != nil {
		return nil, err
	}

	savedAt := time.Now().UTC().Truncate(time.Second)
	var version int64
	err = db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("UPDATE scoring_configs SET active = false WHERE active"); err != nil {
			return err
		}
		result, err := tx.Exec(
			"INSERT INTO scoring_configs (saved_at, note, body, active) VALUES (?, ?, ?, true)",
			savedAt.Format(time.RFC3339), note, string(body),
		)
		if err != nil {
			return fmt.Errorf("storing scoring configuration: %w", err)
		}
		version, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ConfigVersion{Version: version, SavedAt: savedAt, Note: note, Active: true}, nil
}

// ActiveScoringConfig returns the active configuration and its version, or
// nil values when none has been saved.
func (db *DB) ActiveScoringConfig() (*scoring.Configuration, *ConfigVersion, error) {
	row := db.conn.QueryRow("SELECT version, saved_at, note, active, body FROM scoring_configs WHERE active ORDER BY version DESC LIMIT 1")
	return scanScoringConfig(row)
}

// GetScoringConfig returns a stored configuration version, or nil values
// when it does not exist.
func (db *DB) GetScoringConfig(version int64) (*scoring.Configuration, *ConfigVersion, error) {
	row := db.conn.QueryRow("SELECT version, saved_at, note, active, body FROM scoring_configs WHERE version = ?", version)
	return scanScoringConfig(row)
}

// ActivateScoringConfig makes a stored version the active one.
func (db *DB) ActivateScoringConfig(version int64) error {
	return db.inTx(func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM scoring_configs WHERE version = ?)", version).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("scoring configuration version %d not found", version)
		}
		_, err := tx.Exec("UPDATE scoring_configs SET active = (version = ?)", version)
		return err
	})
}

// ListScoringConfigs returns stored versions, newest first.
func (db *DB) ListScoringConfigs() ([]ConfigVersion, error) {
	rows, err := db.conn.Query("SELECT version, saved_at, note, active FROM scoring_configs ORDER BY version DESC")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var versions []ConfigVersion
	for rows.Next() {
		var v ConfigVersion
		var savedAt string
		var note sql.NullString
		if err := rows.Scan(&v.Version, &savedAt, &note, &v.Active); err != nil {
			return nil, err
		}
		v.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
		v.Note = note.String
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func scanScoringConfig(row *sql.Row) (*scoring.Configuration, *ConfigVersion, error) {
	var v ConfigVersion
	var savedAt, body string
	var note sql.NullString
	err := row.Scan(&v.Version, &savedAt, &note, &v.Active, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	v.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
	v.Note = note.String

	cfg, err := scoring.Decode([]byte(body), scoring.FormatJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("scoring configuration version %d: %w", v.Version, err)
	}
	return cfg, &v, nil
}
