// Package store provides SQLite persistence for suggestions, client
// profiles, scoring configuration versions and pass snapshots.
package store

import (
	"time"

	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// Snapshot records one persisted scoring pass.
type Snapshot struct {
	ID      int64  `json:"id"`
	RunID   string `json:"run_id"`
	Command string `json:"command"`
	Version string `json:"version"`

	// TakenAt is when the snapshot was written; ScoredAt is the reference
	// time the pass used for age bucketing.
	TakenAt  time.Time `json:"taken_at"`
	ScoredAt time.Time `json:"scored_at"`

	// ConfigVersion is the scoring configuration version used, or 0 when
	// the pass ran against a file or the built-in defaults.
	ConfigVersion int64 `json:"config_version,omitempty"`
}

// PassResult is one scored suggestion within a snapshot.
type PassResult struct {
	ID           int64             `json:"id"`
	SnapshotID   int64             `json:"snapshot_id"`
	Position     int               `json:"position"`
	SuggestionID string            `json:"suggestion_id"`
	Title        string            `json:"title"`
	Email        string            `json:"email"`
	ClientName   string            `json:"client_name"`
	IsEnterprise bool              `json:"is_enterprise"`
	Archived     bool              `json:"archived"`
	TotalScore   scoring.Points    `json:"total_score"`
	Tier         scoring.Tier      `json:"tier"`
	Breakdown    scoring.Breakdown `json:"breakdown"`
	AnomalyCount int               `json:"anomaly_count"`
}

// ConfigVersion is a stored scoring configuration.
type ConfigVersion struct {
	Version int64     `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Note    string    `json:"note,omitempty"`
	Active  bool      `json:"active"`
}

// AggregateMetric represents a named metric value within a snapshot.
type AggregateMetric struct {
	ID          int64   `json:"id"`
	SnapshotID  int64   `json:"snapshot_id"`
	MetricName  string  `json:"metric_name"`
	MetricValue float64 `json:"metric_value"`
	Detail      string  `json:"detail,omitempty"`
}

// SnapshotDiff represents the comparison between two snapshots.
type SnapshotDiff struct {
	Previous *Snapshot     `json:"previous"`
	Current  *Snapshot     `json:"current"`
	Deltas   []MetricDelta `json:"deltas"`
}

// MetricDelta represents the change in a single metric between snapshots.
type MetricDelta struct {
	Name     string  `json:"name"`
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
	Delta    float64 `json:"delta"`
}
