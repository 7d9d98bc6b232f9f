// Package prioritize runs scoring passes over a suggestion snapshot and
// provides the filter/sort pipeline used to build prioritized views.
package prioritize

import (
	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/feedback"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// ScoredSuggestion is a suggestion paired with its resolved client, score
// breakdown and tier. It is recomputed in full on every pass.
type ScoredSuggestion struct {
	Suggestion feedback.Suggestion `json:"suggestion"`
	Client     client.Profile      `json:"client"`
	Breakdown  scoring.Breakdown   `json:"breakdown"`
	TotalScore scoring.Points      `json:"totalScore"`
	Tier       scoring.Tier        `json:"tier"`
	Anomalies  []scoring.Anomaly   `json:"anomalies,omitempty"`
}

// View is the result of filtering and sorting a pass.
type View struct {
	Items []ScoredSuggestion `json:"items"`

	// PrioritizedCount is the number of suggestions scored in the pass.
	PrioritizedCount int `json:"prioritizedCount"`

	// FilteredCount is the number of suggestions left after filtering.
	FilteredCount int `json:"filteredCount"`
}

// TierCount is the number of suggestions classified into one tier.
type TierCount struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
	Rank  int    `json:"rank"`
	Count int    `json:"count"`

	// Terminal marks the unbounded top band, e.g. "Urgent".
	Terminal bool `json:"terminal,omitempty"`
}

// Summary aggregates a pass for reporting.
type Summary struct {
	Total      int         `json:"total"`
	Tiers      []TierCount `json:"tiers"`
	Enterprise int         `json:"enterprise"`
	Archived   int         `json:"archived"`
	Anomalies  int         `json:"anomalies"`

	MeanScore float64        `json:"meanScore"`
	MaxScore  scoring.Points `json:"maxScore"`
	MinScore  scoring.Points `json:"minScore"`
}

// ShiftKind describes how a suggestion's tier changed between two passes.
type ShiftKind string

// Tier shift kinds.
const (
	ShiftEscalated   ShiftKind = "escalated"
	ShiftDeescalated ShiftKind = "deescalated"
	ShiftNew         ShiftKind = "new"
	ShiftRemoved     ShiftKind = "removed"
)

// TierShift records one suggestion whose tier differs between passes.
type TierShift struct {
	SuggestionID string         `json:"suggestionId"`
	Title        string         `json:"title"`
	Kind         ShiftKind      `json:"kind"`
	From         scoring.Tier   `json:"from"`
	To           scoring.Tier   `json:"to"`
	FromScore    scoring.Points `json:"fromScore"`
	ToScore      scoring.Points `json:"toScore"`
}
