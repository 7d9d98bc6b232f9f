package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/feedbackrank/internal/client"
)

// UpsertClients inserts or replaces client profiles keyed by normalized
// email. Profiles without an email are skipped. It returns the number
// stored. The enterprise flag is never persisted; the resolver computes it.
func (db *DB) UpsertClients(profiles []client.Profile) (int, error) {
	stored := 0
	err := db.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO clients
			(email, name, total_customers, preventive_status, nps_score, loyalty,
			 suggestion_history_count, tenure_years, imported_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(email) DO UPDATE SET
				name = excluded.name,
				total_customers = excluded.total_customers,
				preventive_status = excluded.preventive_status,
				nps_score = excluded.nps_score,
				loyalty = excluded.loyalty,
				suggestion_history_count = excluded.suggestion_history_count,
				tenure_years = excluded.tenure_years,
				imported_at = excluded.imported_at`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		importedAt := time.Now().UTC().Format(time.RFC3339)
		for _, p := range profiles {
			email := client.NormalizeEmail(p.Email)
			if email == "" {
				continue
			}
			if _, err := stmt.Exec(
				email, strings.TrimSpace(p.Name), p.TotalCustomers, string(p.PreventiveStatus),
				p.NPSScore, string(p.Loyalty), p.SuggestionHistoryCount, p.TenureYears, importedAt,
			); err != nil {
				return fmt.Errorf("storing client %s: %w", email, err)
			}
			stored++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stored, nil
}

// ListClients returns every stored client profile ordered by email.
func (db *DB) ListClients() ([]client.Profile, error) {
	rows, err := db.conn.Query(
		`SELECT email, name, total_customers, preventive_status, nps_score, loyalty,
		 suggestion_history_count, tenure_years
		 FROM clients ORDER BY email`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var profiles []client.Profile
	for rows.Next() {
		var p client.Profile
		var status, loyalty string
		if err := rows.Scan(&p.Email, &p.Name, &p.TotalCustomers, &status, &p.NPSScore,
			&loyalty, &p.SuggestionHistoryCount, &p.TenureYears); err != nil {
			return nil, err
		}
		p.PreventiveStatus = client.PreventiveStatus(status)
		p.Loyalty = client.Loyalty(loyalty)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// ClientDirectory loads every stored profile into an in-memory directory.
func (db *DB) ClientDirectory() (*client.StaticDirectory, error) {
	profiles, err := db.ListClients()
	if err != nil {
		return nil, fmt.Errorf("loading clients: %w", err)
	}
	return client.NewStaticDirectory(profiles), nil
}

// CountClients returns the number of stored client profiles.
func (db *DB) CountClients() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM clients").Scan(&n)
	return n, err
}
