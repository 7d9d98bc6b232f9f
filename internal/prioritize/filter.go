package prioritize

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// EnterpriseSelector restricts a view by enterprise status.
type EnterpriseSelector string

// Enterprise selectors. The empty selector behaves like EnterpriseAll.
const (
	EnterpriseAll     EnterpriseSelector = "all"
	EnterpriseOnly    EnterpriseSelector = "only"
	EnterpriseExclude EnterpriseSelector = "exclude"
)

// ParseEnterpriseSelector accepts "all", "only" or "exclude".
func ParseEnterpriseSelector(s string) (EnterpriseSelector, error) {
	switch sel := EnterpriseSelector(strings.ToLower(strings.TrimSpace(s))); sel {
	case "", EnterpriseAll:
		return EnterpriseAll, nil
	case EnterpriseOnly, EnterpriseExclude:
		return sel, nil
	default:
		return "", fmt.Errorf("unknown enterprise selector %q (want all, only or exclude)", s)
	}
}

// SortKey selects the field a view is ordered by, descending.
type SortKey string

// Sort keys. The empty key sorts by score.
const (
	SortByScore    SortKey = "score"
	SortByVotes    SortKey = "votes"
	SortByComments SortKey = "comments"
)

// ParseSortKey accepts "score", "votes" or "comments".
func ParseSortKey(s string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(s))); key {
	case "", SortByScore:
		return SortByScore, nil
	case SortByVotes, SortByComments:
		return key, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want score, votes or comments)", s)
	}
}

// Range is an inclusive [Low, High] interval.
type Range struct {
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

func (r Range) contains(v int64) bool {
	return v >= r.Low && v <= r.High
}

// ParseRange parses "lo,hi" or "lo-hi" into a Range. Negative bounds need
// the comma form.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	sep := ","
	if !strings.Contains(s, sep) {
		sep = "-"
	}
	lo, hi, ok := strings.Cut(s, sep)
	if !ok {
		return Range{}, fmt.Errorf("invalid range %q (want lo,hi)", s)
	}
	low, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	high, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	return Range{Low: low, High: high}, nil
}

// SizeBand selects clients by their total customer count. The zero value,
// like SizeAll, places no restriction.
type SizeBand struct {
	Name string `json:"name"`
	Min  int64  `json:"min"`

	// Max is inclusive; nil is unbounded.
	Max *int64 `json:"max,omitempty"`
}

// Size band presets.
var (
	SizeAll    = SizeBand{Name: "all"}
	SizeSmall  = SizeBand{Name: "small", Min: 0, Max: scoring.Bound[int64](5000)}
	SizeMedium = SizeBand{Name: "medium", Min: 5001, Max: scoring.Bound[int64](15000)}
	SizeLarge  = SizeBand{Name: "large", Min: 15001}
)

// IsAll reports whether the band places no restriction.
func (b SizeBand) IsAll() bool {
	return b.Name == "" || b.Name == SizeAll.Name
}

func (b SizeBand) contains(customers int64) bool {
	if customers < b.Min {
		return false
	}
	return b.Max == nil || customers <= *b.Max
}

// ParseSizeBand accepts a preset name, an explicit "min-max" range, or
// "min+" for an open-ended band.
func ParseSizeBand(s string) (SizeBand, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "all":
		return SizeAll, nil
	case "small":
		return SizeSmall, nil
	case "medium":
		return SizeMedium, nil
	case "large":
		return SizeLarge, nil
	}

	if lo, ok := strings.CutSuffix(s, "+"); ok {
		low, err := strconv.ParseInt(lo, 10, 64)
		if err != nil || low < 0 {
			return SizeBand{}, fmt.Errorf("invalid size band %q", s)
		}
		return SizeBand{Name: s, Min: low}, nil
	}
	r, err := ParseRange(s)
	if err != nil || r.Low < 0 {
		return SizeBand{}, fmt.Errorf("invalid size band %q (want all, small, medium, large, min-max or min+)", s)
	}
	return SizeBand{Name: s, Min: r.Low, Max: &r.High}, nil
}

// FilterSpec selects and orders a view. Empty allow-lists and "all"
// selectors place no restriction.
type FilterSpec struct {
	Tiers              []string                  `json:"tiers,omitempty"`
	Size               SizeBand                  `json:"size"`
	PreventiveStatuses []client.PreventiveStatus `json:"preventiveStatuses,omitempty"`
	Enterprise         EnterpriseSelector        `json:"enterprise,omitempty"`

	// NPS is skipped when nil or when it covers [0, 10].
	NPS *Range `json:"nps,omitempty"`

	Loyalty []client.Loyalty `json:"loyalty,omitempty"`

	// Score is skipped when nil or when it covers [0, max] for the highest
	// score in the input.
	Score *Range `json:"score,omitempty"`

	IncludeArchived bool    `json:"includeArchived"`
	SortBy          SortKey `json:"sortBy,omitempty"`
}

// Apply filters scored by spec and sorts the survivors descending by the
// spec's sort key. Ties keep their input order. The input slice is not
// modified.
func Apply(scored []ScoredSuggestion, spec FilterSpec) []ScoredSuggestion {
	preds := spec.predicates(scored)
	out := make([]ScoredSuggestion, 0, len(scored))
	for _, ss := range scored {
		if matchesAll(ss, preds) {
			out = append(out, ss)
		}
	}
	sortView(out, spec.SortBy)
	return out
}

// BuildView applies spec and records the before and after counts.
func BuildView(scored []ScoredSuggestion, spec FilterSpec) View {
	items := Apply(scored, spec)
	return View{
		Items:            items,
		PrioritizedCount: len(scored),
		FilteredCount:    len(items),
	}
}

type predicate func(ScoredSuggestion) bool

func matchesAll(ss ScoredSuggestion, preds []predicate) bool {
	for _, p := range preds {
		if !p(ss) {
			return false
		}
	}
	return true
}

// predicates builds the active filters in evaluation order.
func (spec FilterSpec) predicates(scored []ScoredSuggestion) []predicate {
	var preds []predicate

	if len(spec.Tiers) > 0 {
		preds = append(preds, func(ss ScoredSuggestion) bool {
			return slices.Contains(spec.Tiers, ss.Tier.Label)
		})
	}
	if !spec.Size.IsAll() {
		band := spec.Size
		preds = append(preds, func(ss ScoredSuggestion) bool {
			return band.contains(ss.Client.TotalCustomers)
		})
	}
	if len(spec.PreventiveStatuses) > 0 {
		preds = append(preds, func(ss ScoredSuggestion) bool {
			status := ss.Client.PreventiveStatus
			if status == "" {
				status = client.PreventiveNotApplicable
			}
			return slices.Contains(spec.PreventiveStatuses, status)
		})
	}
	switch spec.Enterprise {
	case EnterpriseOnly:
		preds = append(preds, func(ss ScoredSuggestion) bool { return ss.Client.IsEnterprise })
	case EnterpriseExclude:
		preds = append(preds, func(ss ScoredSuggestion) bool { return !ss.Client.IsEnterprise })
	}
	if r := spec.NPS; r != nil && !(r.Low <= 0 && r.High >= 10) {
		nps := *r
		preds = append(preds, func(ss ScoredSuggestion) bool {
			return nps.contains(int64(ss.Client.NPSScore))
		})
	}
	if len(spec.Loyalty) > 0 {
		preds = append(preds, func(ss ScoredSuggestion) bool {
			l := ss.Client.Loyalty
			if l == "" {
				l = client.LoyaltyNone
			}
			return slices.Contains(spec.Loyalty, l)
		})
	}
	if r := spec.Score; r != nil && !(r.Low == 0 && r.High >= int64(maxScore(scored))) {
		score := *r
		preds = append(preds, func(ss ScoredSuggestion) bool {
			return score.contains(int64(ss.TotalScore))
		})
	}
	if !spec.IncludeArchived {
		preds = append(preds, func(ss ScoredSuggestion) bool { return !ss.Suggestion.IsArchived() })
	}
	return preds
}

func maxScore(scored []ScoredSuggestion) scoring.Points {
	var top scoring.Points
	for _, ss := range scored {
		top = max(top, ss.TotalScore)
	}
	return top
}

func sortView(items []ScoredSuggestion, key SortKey) {
	var field func(ScoredSuggestion) int64
	switch key {
	case SortByVotes:
		field = func(ss ScoredSuggestion) int64 { return int64(ss.Suggestion.Votes) }
	case SortByComments:
		field = func(ss ScoredSuggestion) int64 { return int64(ss.Suggestion.CommentsCount) }
	default:
		field = func(ss ScoredSuggestion) int64 { return int64(ss.TotalScore) }
	}
	slices.SortStableFunc(items, func(a, b ScoredSuggestion) int {
		return cmp.Compare(field(b), field(a))
	})
}
