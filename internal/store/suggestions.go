package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/feedbackrank/internal/feedback"
)

// UpsertSuggestions inserts or replaces suggestions by ID and returns them
// with any missing IDs filled in. Existing suggestions keep their position
// in the store's listing order.
func (db *DB) UpsertSuggestions(suggestions []feedback.Suggestion) ([]feedback.Suggestion, error) {
	out := make([]feedback.Suggestion, len(suggestions))
	err := db.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO suggestions
			(id, title, description, email, votes, comments_count, created_at, module,
			 status, priority, is_public, imported_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				description = excluded.description,
				email = excluded.email,
				votes = excluded.votes,
				comments_count = excluded.comments_count,
				created_at = excluded.created_at,
				module = excluded.module,
				status = excluded.status,
				priority = excluded.priority,
				is_public = excluded.is_public,
				imported_at = excluded.imported_at`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		importedAt := time.Now().UTC().Format(time.RFC3339)
		for i, s := range suggestions {
			if strings.TrimSpace(s.ID) == "" {
				s.ID = uuid.NewString()
			}
			if s.Status == "" {
				s.Status = feedback.StatusPending
			}
			var createdAt sql.NullString
			if !s.CreatedAt.IsZero() {
				createdAt = sql.NullString{String: s.CreatedAt.UTC().Format(time.RFC3339Nano), Valid: true}
			}
			if _, err := stmt.Exec(
				s.ID, s.Title, s.Description, s.Email, s.Votes, s.CommentsCount, createdAt,
				s.Module, string(s.Status), s.Priority, s.IsPublic, importedAt,
			); err != nil {
				return fmt.Errorf("storing suggestion %s: %w", s.ID, err)
			}
			out[i] = s
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const suggestionColumns = `id, title, description, email, votes, comments_count, created_at,
	module, status, priority, is_public`

// ListSuggestions returns every stored suggestion in import order.
func (db *DB) ListSuggestions() ([]feedback.Suggestion, error) {
	rows, err := db.conn.Query("SELECT " + suggestionColumns + " FROM suggestions ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var suggestions []feedback.Suggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, *s)
	}
	return suggestions, rows.Err()
}

// GetSuggestion returns the suggestion with the given ID, or nil.
func (db *DB) GetSuggestion(id string) (*feedback.Suggestion, error) {
	row := db.conn.QueryRow("SELECT "+suggestionColumns+" FROM suggestions WHERE id = ?", id)
	s, err := scanSuggestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func scanSuggestion(row scanner) (*feedback.Suggestion, error) {
	var s feedback.Suggestion
	var description, createdAt, module, priority sql.NullString
	var status string
	if err := row.Scan(&s.ID, &s.Title, &description, &s.Email, &s.Votes,
		&s.CommentsCount, &createdAt, &module, &status, &priority, &s.IsPublic); err != nil {
		return nil, err
	}
	s.Description = description.String
	s.Module = module.String
	s.Priority = priority.String
	s.Status = feedback.Status(status)
	if createdAt.Valid {
		s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt.String)
	}
	return &s, nil
}

// CountSuggestions returns the number of stored suggestions.
func (db *DB) CountSuggestions() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM suggestions").Scan(&n)
	return n, err
}
