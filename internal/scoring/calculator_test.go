package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/feedback"
)

var testNow = time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

// baselineSuggestion and baselineProfile reproduce the reference example:
// 10 votes, created today, from a small loyal first-time client.
func baselineSuggestion() feedback.Suggestion {
	return feedback.Suggestion{
		ID:        "s-1",
		Title:     "Bulk export",
		Email:     "ana@smallshop.example",
		Votes:     10,
		CreatedAt: testNow,
		Status:    feedback.StatusPending,
	}
}

func baselineProfile() client.Profile {
	return client.Profile{
		Name:                   "Small Shop",
		Email:                  "ana@smallshop.example",
		TotalCustomers:         0,
		PreventiveStatus:       client.PreventiveNotApplicable,
		NPSScore:               8,
		Loyalty:                client.LoyaltyFull,
		SuggestionHistoryCount: 1,
		TenureYears:            0,
	}
}

func TestScore_ReferenceExample(t *testing.T) {
	cfg := DefaultConfiguration()
	res := Score(baselineSuggestion(), baselineProfile(), cfg, testNow)

	want := map[Contribution]Points{
		ContributionVotes:             20,
		ContributionCustomerTier:      10,
		ContributionPreventiveStatus:  0,
		ContributionEnterprise:        0,
		ContributionAge:               1,
		ContributionNPS:               20,
		ContributionLoyalty:           50,
		ContributionSuggestionHistory: 75,
		ContributionTenure:            0,
	}
	for c, pts := range want {
		got, ok := res.Breakdown.Get(c)
		if !ok {
			t.Errorf("breakdown missing %s", c)
			continue
		}
		if got != pts {
			t.Errorf("%s = %d, want %d", c, got, pts)
		}
	}
	if res.Total != 176 {
		t.Fatalf("expected total 176, got %d", res.Total)
	}
	if tier := Classify(res.Total, cfg); tier.Label != "3" {
		t.Errorf("expected tier 3, got %q", tier.Label)
	}
	if len(res.Anomalies) != 0 {
		t.Errorf("expected no anomalies, got %+v", res.Anomalies)
	}
}

func TestScore_EnterpriseDomainAddsBonus(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.EnterpriseDomains["smallshop.example"] = "Small Shop Holdings"

	p := client.NewResolver(client.NewStaticDirectory([]client.Profile{baselineProfile()}), cfg.EnterpriseRules()).
		Resolve("ana@smallshop.example")
	res := Score(baselineSuggestion(), p, cfg, testNow)

	if res.Total != 276 {
		t.Fatalf("expected total 276, got %d", res.Total)
	}
	if tier := Classify(res.Total, cfg); tier.Label != "2" {
		t.Errorf("expected tier 2, got %q", tier.Label)
	}
}

func TestScore_EnterpriseBonusAppliedOnce(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.EnterpriseAllowlist = []string{"Small Shop Holdings"}
	cfg.EnterpriseDomains["smallshop.example"] = "Small Shop Holdings"

	p := client.Resolve("ana@smallshop.example", []client.Profile{baselineProfile()}, cfg.EnterpriseRules())
	res := Score(baselineSuggestion(), p, cfg, testNow)

	got, _ := res.Breakdown.Get(ContributionEnterprise)
	if got != cfg.EnterpriseBonusPoints {
		t.Errorf("expected single bonus %d, got %d", cfg.EnterpriseBonusPoints, got)
	}
	if res.Total != 276 {
		t.Errorf("expected total 276, got %d", res.Total)
	}
}

func TestScore_BreakdownHasEveryContributionInOrder(t *testing.T) {
	res := Score(feedback.Suggestion{}, client.Profile{}, DefaultConfiguration(), testNow)
	if len(res.Breakdown) != len(Contributions) {
		t.Fatalf("expected %d entries, got %d", len(Contributions), len(res.Breakdown))
	}
	for i, c := range Contributions {
		if res.Breakdown[i].Contribution != c {
			t.Errorf("entry %d = %s, want %s", i, res.Breakdown[i].Contribution, c)
		}
	}
}

func TestScore_BreakdownSumsToTotal(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.EnterpriseAllowlist = []string{"Big Co"}
	statuses := []client.PreventiveStatus{"", client.PreventiveMonitoring, client.PreventiveCritical, "unknown"}
	loyalties := []client.Loyalty{client.LoyaltyFull, client.LoyaltyPartial, "", "weird"}

	for votes := -3; votes < 400; votes += 37 {
		for customers := int64(-1); customers < 40000; customers += 7919 {
			for nps := -1; nps <= 11; nps += 3 {
				for i, status := range statuses {
					s := feedback.Suggestion{
						ID:        "x",
						Votes:     votes,
						CreatedAt: testNow.AddDate(0, -votes%20, 0),
					}
					p := client.Profile{
						Name:                   "Big Co",
						TotalCustomers:         customers,
						PreventiveStatus:       status,
						NPSScore:               nps,
						Loyalty:                loyalties[i],
						SuggestionHistoryCount: votes % 13,
						TenureYears:            float64(nps) / 2,
						IsEnterprise:           i%2 == 0,
					}
					res := Score(s, p, cfg, testNow)
					if got := res.Breakdown.Total(); got != res.Total {
						t.Fatalf("breakdown sum %d != total %d for %+v / %+v", got, res.Total, s, p)
					}
				}
			}
		}
	}
}

func TestScore_NegativeInputsScoreZeroAndFlag(t *testing.T) {
	cfg := DefaultConfiguration()
	s := feedback.Suggestion{ID: "neg", Votes: -5, CreatedAt: testNow.Add(48 * time.Hour)}
	p := client.Profile{
		TotalCustomers:         -10,
		NPSScore:               42,
		SuggestionHistoryCount: -2,
		TenureYears:            math.NaN(),
	}

	res := Score(s, p, cfg, testNow)

	if v, _ := res.Breakdown.Get(ContributionVotes); v != 0 {
		t.Errorf("negative votes should score 0, got %d", v)
	}
	if v, _ := res.Breakdown.Get(ContributionNPS); v != 0 {
		t.Errorf("out-of-range NPS should score 0, got %d", v)
	}
	if v, _ := res.Breakdown.Get(ContributionCustomerTier); v != 10 {
		t.Errorf("negative customers should land in the lowest tier (10), got %d", v)
	}
	if v, _ := res.Breakdown.Get(ContributionAge); v != 1 {
		t.Errorf("future creation date should be age 0 (1 point), got %d", v)
	}

	fields := make(map[string]bool)
	for _, a := range res.Anomalies {
		if a.Kind != AnomalyOutOfRange {
			t.Errorf("unexpected anomaly kind %q for %s", a.Kind, a.Field)
		}
		if a.SuggestionID != "neg" {
			t.Errorf("anomaly missing suggestion ID: %+v", a)
		}
		fields[a.Field] = true
	}
	for _, f := range []string{"votes", "totalCustomers", "createdAt", "npsScore", "suggestionHistoryCount", "tenureYears"} {
		if !fields[f] {
			t.Errorf("expected anomaly for %s, got %v", f, fields)
		}
	}
}

func TestScore_MissingLookupsScoreZero(t *testing.T) {
	cfg := DefaultConfiguration()
	delete(cfg.NPSPoints, 8)
	p := baselineProfile()
	p.PreventiveStatus = "escalated"
	p.Loyalty = "platinum"

	res := Score(baselineSuggestion(), p, cfg, testNow)

	for _, c := range []Contribution{ContributionNPS, ContributionPreventiveStatus, ContributionLoyalty} {
		if v, _ := res.Breakdown.Get(c); v != 0 {
			t.Errorf("%s: expected 0 for missing lookup, got %d", c, v)
		}
	}
	if len(res.Anomalies) != 3 {
		t.Fatalf("expected 3 anomalies, got %d: %+v", len(res.Anomalies), res.Anomalies)
	}
	for _, a := range res.Anomalies {
		if a.Kind != AnomalyMissingLookup {
			t.Errorf("expected missing_lookup, got %q", a.Kind)
		}
	}
}

func TestScore_ZeroCreatedAtFlagged(t *testing.T) {
	s := baselineSuggestion()
	s.CreatedAt = time.Time{}
	res := Score(s, baselineProfile(), DefaultConfiguration(), testNow)
	if len(res.Anomalies) != 1 || res.Anomalies[0].Field != "createdAt" {
		t.Errorf("expected a createdAt anomaly, got %+v", res.Anomalies)
	}
}

func TestScore_IsDeterministic(t *testing.T) {
	cfg := DefaultConfiguration()
	a := Score(baselineSuggestion(), baselineProfile(), cfg, testNow)
	b := Score(baselineSuggestion(), baselineProfile(), cfg, testNow)
	if a.Total != b.Total || len(a.Breakdown) != len(b.Breakdown) {
		t.Fatal("identical inputs produced different results")
	}
	for i := range a.Breakdown {
		if a.Breakdown[i] != b.Breakdown[i] {
			t.Errorf("entry %d differs: %+v vs %+v", i, a.Breakdown[i], b.Breakdown[i])
		}
	}
}

func TestScore_AgeBuckets(t *testing.T) {
	cfg := DefaultConfiguration()
	tests := []struct {
		name    string
		created time.Time
		want    Points
	}{
		{"today", testNow, 1},
		{"one month", testNow.AddDate(0, -1, 0), 1},
		{"two months", testNow.AddDate(0, -2, 0), 3},
		{"six months", testNow.AddDate(0, -6, 0), 5},
		{"nine months", testNow.AddDate(0, -9, 0), 8},
		{"two years", testNow.AddDate(-2, 0, 0), 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := baselineSuggestion()
			s.CreatedAt = tc.created
			res := Score(s, baselineProfile(), cfg, testNow)
			if got, _ := res.Breakdown.Get(ContributionAge); got != tc.want {
				t.Errorf("age points = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScore_CustomerTierBoundaryIsInclusive(t *testing.T) {
	cfg := DefaultConfiguration()
	tests := []struct {
		customers int64
		want      Points
	}{
		{5000, 10},
		{5001, 20},
		{20000, 40},
		{20001, 50},
		{1 << 40, 50},
	}
	for _, tc := range tests {
		p := baselineProfile()
		p.TotalCustomers = tc.customers
		res := Score(baselineSuggestion(), p, cfg, testNow)
		if got, _ := res.Breakdown.Get(ContributionCustomerTier); got != tc.want {
			t.Errorf("customers=%d: got %d, want %d", tc.customers, got, tc.want)
		}
	}
}

func TestScore_LastEntryUsedWhenNoBoundMatches(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.TenureThresholds = []TenureThreshold{
		{MaxYears: Bound(1.0), Points: 1},
		{MaxYears: Bound(2.0), Points: 2},
	}
	p := baselineProfile()
	p.TenureYears = 9
	res := Score(baselineSuggestion(), p, cfg, testNow)
	if got, _ := res.Breakdown.Get(ContributionTenure); got != 2 {
		t.Errorf("expected last entry's points (2), got %d", got)
	}
}

func TestNewCalculator_RejectsInvalid(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.TierThresholds[0], cfg.TierThresholds[1] = cfg.TierThresholds[1], cfg.TierThresholds[0]
	if _, err := NewCalculator(cfg); err == nil {
		t.Fatal("expected error for unsorted tier table")
	}
}

func TestNewCalculator_CopiesConfiguration(t *testing.T) {
	cfg := DefaultConfiguration()
	calc, err := NewCalculator(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.PointsPerVote = 1000
	res := calc.Score(baselineSuggestion(), baselineProfile(), testNow)
	if res.Total != 176 {
		t.Errorf("calculator should not observe later edits, got total %d", res.Total)
	}
	if tier := calc.Classify(res.Total); tier.Label != "3" {
		t.Errorf("expected tier 3, got %q", tier.Label)
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		from, to string
		want     int
	}{
		{"2026-01-15T00:00:00Z", "2026-01-15T00:00:00Z", 0},
		{"2026-01-15T00:00:00Z", "2026-02-14T23:59:59Z", 0},
		{"2026-01-15T00:00:00Z", "2026-02-15T00:00:00Z", 1},
		{"2026-01-31T00:00:00Z", "2026-02-28T00:00:00Z", 0},
		{"2025-10-18T12:00:00Z", "2026-10-18T11:59:59Z", 11},
		{"2025-10-18T12:00:00Z", "2026-10-18T12:00:00Z", 12},
		{"2026-05-01T00:00:00Z", "2026-01-01T00:00:00Z", 0},
	}
	for _, tc := range tests {
		from, _ := time.Parse(time.RFC3339, tc.from)
		to, _ := time.Parse(time.RFC3339, tc.to)
		if got := MonthsBetween(from, to); got != tc.want {
			t.Errorf("MonthsBetween(%s, %s) = %d, want %d", tc.from, tc.to, got, tc.want)
		}
	}
}
