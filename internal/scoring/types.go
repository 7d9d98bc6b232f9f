// Package scoring computes priority scores and tiers for suggestions.
//
// A score is the exact integer sum of nine named contributions, each derived
// from a table lookup against a Configuration. The total is then classified
// into a tier using the configuration's ascending tier table.
package scoring

import "time"

// Points is an integer point value. All arithmetic is integral so that a
// breakdown always sums exactly to its total.
type Points int64

// Contribution names one component of a score.
type Contribution string

// Score contributions, in breakdown order.
const (
	ContributionVotes             Contribution = "votes"
	ContributionCustomerTier      Contribution = "customer_tier"
	ContributionPreventiveStatus  Contribution = "preventive_status"
	ContributionEnterprise        Contribution = "enterprise"
	ContributionAge               Contribution = "age"
	ContributionNPS               Contribution = "nps"
	ContributionLoyalty           Contribution = "loyalty"
	ContributionSuggestionHistory Contribution = "suggestion_history"
	ContributionTenure            Contribution = "tenure"
)

// Contributions lists every contribution in breakdown order.
var Contributions = []Contribution{
	ContributionVotes,
	ContributionCustomerTier,
	ContributionPreventiveStatus,
	ContributionEnterprise,
	ContributionAge,
	ContributionNPS,
	ContributionLoyalty,
	ContributionSuggestionHistory,
	ContributionTenure,
}

// Label returns a human-readable name for display.
func (c Contribution) Label() string {
	switch c {
	case ContributionVotes:
		return "Votes"
	case ContributionCustomerTier:
		return "Customer tier"
	case ContributionPreventiveStatus:
		return "Preventive status"
	case ContributionEnterprise:
		return "Enterprise"
	case ContributionAge:
		return "Suggestion age"
	case ContributionNPS:
		return "NPS"
	case ContributionLoyalty:
		return "Loyalty"
	case ContributionSuggestionHistory:
		return "Suggestion history"
	case ContributionTenure:
		return "Tenure"
	default:
		return string(c)
	}
}

// Entry is a single labelled contribution.
type Entry struct {
	Contribution Contribution `json:"name"`
	Points       Points       `json:"points"`
}

// Breakdown is the ordered list of contributions making up a score.
type Breakdown []Entry

// Total sums every entry.
func (b Breakdown) Total() Points {
	var total Points
	for _, e := range b {
		total += e.Points
	}
	return total
}

// Get returns the points recorded for c, and whether c is present.
func (b Breakdown) Get(c Contribution) (Points, bool) {
	for _, e := range b {
		if e.Contribution == c {
			return e.Points, true
		}
	}
	return 0, false
}

// Tier is the result of classifying a total score.
type Tier struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`

	// Rank is the index of the band in the tier table; higher is more
	// urgent.
	Rank int `json:"rank"`

	// Terminal is set for the last band, which has no upper bound.
	Terminal bool `json:"terminal,omitempty"`
}

// AnomalyKind classifies a data-quality issue found while scoring.
type AnomalyKind string

// Anomaly kinds.
const (
	// AnomalyOutOfRange marks input outside its valid domain, scored as zero.
	AnomalyOutOfRange AnomalyKind = "out_of_range"

	// AnomalyMissingLookup marks a value with no configured points.
	AnomalyMissingLookup AnomalyKind = "missing_lookup"
)

// Anomaly records input that was defaulted rather than rejected.
type Anomaly struct {
	Kind         AnomalyKind  `json:"kind"`
	SuggestionID string       `json:"suggestionId,omitempty"`
	Contribution Contribution `json:"contribution"`
	Field        string       `json:"field"`
	Value        string       `json:"value"`
	Message      string       `json:"message"`
}

// Result is the output of scoring one suggestion.
type Result struct {
	Breakdown Breakdown `json:"breakdown"`
	Total     Points    `json:"total"`
	Anomalies []Anomaly `json:"anomalies,omitempty"`

	// ScoredAt is the reference time used for age bucketing.
	ScoredAt time.Time `json:"scoredAt"`
}
