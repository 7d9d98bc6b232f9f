package prioritize

import (
	"testing"

	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

func TestSummarize(t *testing.T) {
	in := fixture()
	in[0].Tier.Rank = 2
	in[1].Tier.Rank = 5
	in[1].Tier.Terminal = true
	in[2].Tier.Rank = 0
	in[3].Tier.Rank = 2
	in[3].Anomalies = []scoring.Anomaly{{Kind: scoring.AnomalyMissingLookup}}

	s := Summarize(in)
	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.Enterprise != 1 || s.Archived != 1 || s.Anomalies != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.MaxScore != 420 || s.MinScore != 90 {
		t.Errorf("max/min = %d/%d, want 420/90", s.MaxScore, s.MinScore)
	}
	if want := float64(176+420+90+200) / 4; s.MeanScore != want {
		t.Errorf("MeanScore = %v, want %v", s.MeanScore, want)
	}

	if len(s.Tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %+v", s.Tiers)
	}
	if s.Tiers[0].Label != "Urgent" || s.Tiers[2].Label != "5" {
		t.Errorf("tiers not ordered most urgent first: %+v", s.Tiers)
	}
	if !s.Tiers[0].Terminal || s.Tiers[1].Terminal {
		t.Errorf("only the Urgent band should be terminal: %+v", s.Tiers)
	}
	if s.Count("3") != 2 || s.Count("1") != 0 {
		t.Errorf("Count(3)=%d Count(1)=%d", s.Count("3"), s.Count("1"))
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.MeanScore != 0 || len(s.Tiers) != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestCompareTiers(t *testing.T) {
	tier := func(label string, rank int) scoring.Tier { return scoring.Tier{Label: label, Rank: rank} }

	prev := []ScoredSuggestion{
		item("same", 120, "4", func(ss *ScoredSuggestion) { ss.Tier = tier("4", 1) }),
		item("up", 140, "4", func(ss *ScoredSuggestion) { ss.Tier = tier("4", 1) }),
		item("down", 310, "1", func(ss *ScoredSuggestion) { ss.Tier = tier("1", 4) }),
		item("gone", 50, "5", func(ss *ScoredSuggestion) { ss.Tier = tier("5", 0) }),
	}
	curr := []ScoredSuggestion{
		item("fresh", 20, "5", func(ss *ScoredSuggestion) { ss.Tier = tier("5", 0) }),
		item("down", 240, "3", func(ss *ScoredSuggestion) { ss.Tier = tier("3", 2) }),
		item("same", 130, "4", func(ss *ScoredSuggestion) { ss.Tier = tier("4", 1) }),
		item("up", 260, "2", func(ss *ScoredSuggestion) { ss.Tier = tier("2", 3) }),
	}

	shifts := CompareTiers(prev, curr)
	want := []struct {
		id   string
		kind ShiftKind
	}{
		{"fresh", ShiftNew},
		{"down", ShiftDeescalated},
		{"up", ShiftEscalated},
		{"gone", ShiftRemoved},
	}
	if len(shifts) != len(want) {
		t.Fatalf("expected %d shifts, got %+v", len(want), shifts)
	}
	for i, w := range want {
		if shifts[i].SuggestionID != w.id || shifts[i].Kind != w.kind {
			t.Errorf("shift %d = %s/%s, want %s/%s", i, shifts[i].SuggestionID, shifts[i].Kind, w.id, w.kind)
		}
	}
	if shifts[2].FromScore != 140 || shifts[2].ToScore != 260 {
		t.Errorf("escalation scores = %d -> %d", shifts[2].FromScore, shifts[2].ToScore)
	}

	esc := Escalations(shifts)
	if len(esc) != 1 || esc[0].SuggestionID != "up" {
		t.Errorf("Escalations = %+v", esc)
	}
}

func TestCompareTiers_Identical(t *testing.T) {
	in := fixture()
	if shifts := CompareTiers(in, in); len(shifts) != 0 {
		t.Errorf("expected no shifts, got %+v", shifts)
	}
}
