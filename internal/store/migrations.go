package store

import (
	"database/sql"
	"fmt"
)

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	// Create the schema_version table if it does not exist.
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// SchemaVersion returns the applied schema version, 0 for a fresh database.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// migrateV1 creates all initial tables and indexes.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS suggestions (
			seq            INTEGER PRIMARY KEY AUTOINCREMENT,
			id             TEXT NOT NULL UNIQUE,
			title          TEXT NOT NULL,
			description    TEXT,
			email          TEXT NOT NULL,
			votes          INTEGER NOT NULL,
			comments_count INTEGER NOT NULL,
			created_at     TEXT,
			module         TEXT,
			status         TEXT NOT NULL,
			priority       TEXT,
			is_public      BOOLEAN NOT NULL,
			imported_at    TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS clients (
			email                    TEXT PRIMARY KEY,
			name                     TEXT NOT NULL,
			total_customers          INTEGER NOT NULL,
			preventive_status        TEXT NOT NULL,
			nps_score                INTEGER NOT NULL,
			loyalty                  TEXT NOT NULL,
			suggestion_history_count INTEGER NOT NULL,
			tenure_years             REAL NOT NULL,
			imported_at              TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS scoring_configs (
			version  INTEGER PRIMARY KEY AUTOINCREMENT,
			saved_at TEXT NOT NULL,
			note     TEXT,
			body     TEXT NOT NULL,
			active   BOOLEAN NOT NULL DEFAULT false
		)`,

		`CREATE TABLE IF NOT EXISTS snapshots (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL UNIQUE,
			taken_at       TEXT NOT NULL,
			scored_at      TEXT NOT NULL,
			command        TEXT NOT NULL,
			version        TEXT NOT NULL,
			config_version INTEGER REFERENCES scoring_configs(version)
		)`,

		`CREATE TABLE IF NOT EXISTS pass_results (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id   INTEGER NOT NULL REFERENCES snapshots(id),
			position      INTEGER NOT NULL,
			suggestion_id TEXT NOT NULL,
			title         TEXT NOT NULL,
			email         TEXT NOT NULL,
			client_name   TEXT NOT NULL,
			is_enterprise BOOLEAN NOT NULL,
			archived      BOOLEAN NOT NULL,
			total_score   INTEGER NOT NULL,
			tier_label    TEXT NOT NULL,
			tier_color    TEXT,
			tier_rank     INTEGER NOT NULL,
			breakdown     TEXT NOT NULL,
			anomaly_count INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS aggregate_metrics (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id  INTEGER NOT NULL REFERENCES snapshots(id),
			metric_name  TEXT NOT NULL,
			metric_value REAL NOT NULL,
			detail       TEXT
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_suggestions_email ON suggestions(email)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_status ON suggestions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_scoring_configs_active ON scoring_configs(active)`,
		`CREATE INDEX IF NOT EXISTS idx_pass_results_snapshot ON pass_results(snapshot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pass_results_suggestion ON pass_results(suggestion_id)`,
		`CREATE INDEX IF NOT EXISTS idx_aggregate_snapshot ON aggregate_metrics(snapshot_id)`,
	}

	return db.inTx(func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("executing %q: %w", stmt[:40], err)
			}
		}
		if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
			return err
		}
		_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion)
		return err
	})
}
