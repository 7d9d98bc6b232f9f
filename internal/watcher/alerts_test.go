package watcher

import (
	"testing"

	"github.com/blackwell-systems/feedbackrank/internal/feedback"
	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

func scored(id string, score scoring.Points, label string, rank int, terminal bool) prioritize.ScoredSuggestion {
	return prioritize.ScoredSuggestion{
		Suggestion: feedback.Suggestion{ID: id, Title: "Title " + id},
		TotalScore: score,
		Tier:       scoring.Tier{Label: label, Rank: rank, Terminal: terminal},
	}
}

func makeState(items ...prioritize.ScoredSuggestion) *WatchState {
	return &WatchState{
		ConfigVersion: 1,
		Scored:        items,
		Summary:       prioritize.Summarize(items),
	}
}

func levels(alerts []Alert) map[string]int {
	out := make(map[string]int)
	for _, a := range alerts {
		out[a.Level]++
	}
	return out
}

func TestCompare_IdenticalStates(t *testing.T) {
	prev := makeState(scored("a", 120, "4", 1, false))
	curr := makeState(scored("a", 125, "4", 1, false))

	alerts := Compare(prev, curr)
	if len(alerts) != 0 {
		t.Errorf("expected 0 alerts, got %d", len(alerts))
		for _, a := range alerts {
			t.Logf("  [%s] %s: %s", a.Level, a.Title, a.Message)
		}
	}
}

func TestCompare_EmptyStates(t *testing.T) {
	if alerts := Compare(makeState(), makeState()); len(alerts) != 0 {
		t.Errorf("expected 0 alerts for empty states, got %d", len(alerts))
	}
}

func TestCompare_EscalationToUrgentIsCritical(t *testing.T) {
	prev := makeState(scored("a", 380, "1", 4, false))
	curr := makeState(scored("a", 420, "Urgent", 5, true))

	alerts := Compare(prev, curr)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %+v", alerts)
	}
	if alerts[0].Level != LevelCritical {
		t.Errorf("expected critical, got %s", alerts[0].Level)
	}
	if alerts[0].Title != "Now Urgent: Title a" {
		t.Errorf("unexpected title %q", alerts[0].Title)
	}
}

func TestCompare_OrdinaryEscalationIsWarning(t *testing.T) {
	prev := makeState(scored("a", 140, "4", 1, false))
	curr := makeState(scored("a", 176, "3", 2, false))

	got := levels(Compare(prev, curr))
	if got[LevelWarning] != 1 || got[LevelCritical] != 0 {
		t.Errorf("unexpected levels %v", got)
	}
}

func TestCompare_NewAndRemoved(t *testing.T) {
	prev := makeState(scored("old", 90, "5", 0, false))
	curr := makeState(
		scored("fresh", 150, "4", 1, false),
		scored("hot", 500, "Urgent", 5, true),
	)

	alerts := Compare(prev, curr)
	got := levels(alerts)
	if got[LevelCritical] != 1 {
		t.Errorf("expected urgent arrival to be critical, got %v", got)
	}
	if got[LevelInfo] != 2 {
		t.Errorf("expected new + removed info alerts, got %v", got)
	}
}

func TestCompare_DeescalationsSummarized(t *testing.T) {
	prev := makeState(scored("a", 260, "2", 3, false), scored("b", 270, "2", 3, false))
	curr := makeState(scored("a", 200, "3", 2, false), scored("b", 90, "5", 0, false))

	alerts := Compare(prev, curr)
	if len(alerts) != 1 || alerts[0].Title != "Suggestions de-escalated" {
		t.Fatalf("expected one summary alert, got %+v", alerts)
	}
	if alerts[0].Message != "2 suggestion(s) moved to a less urgent tier" {
		t.Errorf("unexpected message %q", alerts[0].Message)
	}
}

func TestCompare_AnomaliesIncreased(t *testing.T) {
	prev := makeState(scored("a", 100, "5", 0, false))
	bad := scored("a", 100, "5", 0, false)
	bad.Anomalies = []scoring.Anomaly{{Kind: scoring.AnomalyOutOfRange}}
	curr := makeState(bad)

	got := levels(Compare(prev, curr))
	if got[LevelWarning] != 1 {
		t.Errorf("expected anomaly warning, got %v", got)
	}
}

func TestCompare_ConfigChangeWithoutShifts(t *testing.T) {
	prev := makeState(scored("a", 100, "5", 0, false))
	curr := makeState(scored("a", 100, "5", 0, false))
	curr.ConfigVersion = 2

	alerts := Compare(prev, curr)
	if len(alerts) != 1 || alerts[0].Title != "No tier changes" {
		t.Errorf("expected no-change info alert, got %+v", alerts)
	}
}
