package prioritize

import (
	"cmp"
	"slices"

	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// Summarize aggregates a pass. Tiers are listed most urgent first and only
// tiers with at least one suggestion appear.
func Summarize(scored []ScoredSuggestion) Summary {
	s := Summary{Total: len(scored)}
	if len(scored) == 0 {
		return s
	}

	byLabel := make(map[string]*TierCount)
	var sum scoring.Points
	s.MinScore, s.MaxScore = scored[0].TotalScore, scored[0].TotalScore

	for _, ss := range scored {
		tc, ok := byLabel[ss.Tier.Label]
		if !ok {
			tc = &TierCount{Label: ss.Tier.Label, Color: ss.Tier.Color, Rank: ss.Tier.Rank, Terminal: ss.Tier.Terminal}
			byLabel[ss.Tier.Label] = tc
		}
		tc.Count++

		if ss.Client.IsEnterprise {
			s.Enterprise++
		}
		if ss.Suggestion.IsArchived() {
			s.Archived++
		}
		s.Anomalies += len(ss.Anomalies)

		sum += ss.TotalScore
		s.MinScore = min(s.MinScore, ss.TotalScore)
		s.MaxScore = max(s.MaxScore, ss.TotalScore)
	}
	s.MeanScore = float64(sum) / float64(len(scored))

	for _, tc := range byLabel {
		s.Tiers = append(s.Tiers, *tc)
	}
	slices.SortFunc(s.Tiers, func(a, b TierCount) int {
		if c := cmp.Compare(b.Rank, a.Rank); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return s
}

// Count returns the number of suggestions in the tier with the given label.
func (s Summary) Count(label string) int {
	for _, tc := range s.Tiers {
		if tc.Label == label {
			return tc.Count
		}
	}
	return 0
}

// CompareTiers reports every suggestion whose tier differs between prev and
// curr, matched by suggestion ID. Changes are listed in curr order, followed
// by removals in prev order. Suggestions with an unchanged tier are omitted.
func CompareTiers(prev, curr []ScoredSuggestion) []TierShift {
	before := make(map[string]ScoredSuggestion, len(prev))
	for _, ss := range prev {
		before[ss.Suggestion.ID] = ss
	}

	var shifts []TierShift
	seen := make(map[string]bool, len(curr))
	for _, ss := range curr {
		id := ss.Suggestion.ID
		seen[id] = true
		old, ok := before[id]
		if !ok {
			shifts = append(shifts, TierShift{
				SuggestionID: id,
				Title:        ss.Suggestion.Title,
				Kind:         ShiftNew,
				To:           ss.Tier,
				ToScore:      ss.TotalScore,
			})
			continue
		}

		var kind ShiftKind
		switch {
		case ss.Tier.Rank > old.Tier.Rank:
			kind = ShiftEscalated
		case ss.Tier.Rank < old.Tier.Rank:
			kind = ShiftDeescalated
		default:
			continue
		}
		shifts = append(shifts, TierShift{
			SuggestionID: id,
			Title:        ss.Suggestion.Title,
			Kind:         kind,
			From:         old.Tier,
			To:           ss.Tier,
			FromScore:    old.TotalScore,
			ToScore:      ss.TotalScore,
		})
	}

	for _, ss := range prev {
		if seen[ss.Suggestion.ID] {
			continue
		}
		shifts = append(shifts, TierShift{
			SuggestionID: ss.Suggestion.ID,
			Title:        ss.Suggestion.Title,
			Kind:         ShiftRemoved,
			From:         ss.Tier,
			FromScore:    ss.TotalScore,
		})
	}
	return shifts
}

// Escalations filters shifts down to suggestions that moved into a more
// urgent tier.
func Escalations(shifts []TierShift) []TierShift {
	var out []TierShift
	for _, s := range shifts {
		if s.Kind == ShiftEscalated {
			out = append(out, s)
		}
	}
	return out
}
