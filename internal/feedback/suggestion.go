// Package feedback defines the suggestion records read from the portal's
// suggestion store.
package feedback

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Status is the workflow state of a suggestion.
type Status string

// Suggestion statuses.
const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusPlanned     Status = "planned"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusRejected    Status = "rejected"
	StatusArchived    Status = "archived"
)

// Statuses lists every known status in workflow order.
var Statuses = []Status{
	StatusPending,
	StatusUnderReview,
	StatusPlanned,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
	StatusArchived,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Suggestion is a user-submitted feature request. The scoring engine treats
// it as read-only input.
type Suggestion struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Email         string    `json:"email"`
	Votes         int       `json:"votes"`
	CommentsCount int       `json:"commentsCount"`
	CreatedAt     time.Time `json:"createdAt"`
	Module        string    `json:"module,omitempty"`
	Status        Status    `json:"status"`

	// Priority is the submitter-declared priority, unrelated to the
	// computed tier.
	Priority string `json:"priority,omitempty"`

	IsPublic bool `json:"isPublic"`
}

// IsArchived reports whether the suggestion has been archived.
func (s Suggestion) IsArchived() bool {
	return s.Status == StatusArchived
}

// DecodeSuggestions reads a JSON array of suggestions, as exported by the
// suggestion store.
func DecodeSuggestions(r io.Reader) ([]Suggestion, error) {
	var suggestions []Suggestion
	if err := json.NewDecoder(r).Decode(&suggestions); err != nil {
		return nil, fmt.Errorf("decoding suggestions: %w", err)
	}
	return suggestions, nil
}
