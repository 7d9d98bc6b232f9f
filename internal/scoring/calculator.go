package scoring

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/feedback"
)

// Calculator scores suggestions against a validated configuration. It holds
// no mutable state and is safe for concurrent use.
type Calculator struct {
	cfg *Configuration
}

// NewCalculator validates cfg and returns a Calculator bound to a private
// copy of it.
func NewCalculator(cfg *Configuration) (*Calculator, error) {
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid scoring configuration: %w", err)
	}
	return &Calculator{cfg: cfg.Clone()}, nil
}

// Configuration returns the calculator's configuration. Callers must not
// modify it.
func (c *Calculator) Configuration() *Configuration {
	return c.cfg
}

// Score computes the breakdown and total for one suggestion.
func (c *Calculator) Score(s feedback.Suggestion, p client.Profile, now time.Time) Result {
	return Score(s, p, c.cfg, now)
}

// Classify maps a total to its tier.
func (c *Calculator) Classify(total Points) Tier {
	return Classify(total, c.cfg)
}

// Score computes the nine contributions for s submitted by the client p and
// sums them. now is the reference time for age bucketing.
//
// Score never fails. Out-of-range input contributes as if it were zero and
// missing lookups score 0; both are reported in Result.Anomalies.
func Score(s feedback.Suggestion, p client.Profile, cfg *Configuration, now time.Time) Result {
	sc := scorer{suggestion: s, cfg: cfg}

	breakdown := Breakdown{
		{ContributionVotes, sc.votes()},
		{ContributionCustomerTier, sc.customerTier(p.TotalCustomers)},
		{ContributionPreventiveStatus, sc.preventive(p.PreventiveStatus)},
		{ContributionEnterprise, sc.enterprise(p.IsEnterprise)},
		{ContributionAge, sc.age(now)},
		{ContributionNPS, sc.nps(p.NPSScore)},
		{ContributionLoyalty, sc.loyalty(p.Loyalty)},
		{ContributionSuggestionHistory, sc.history(p.SuggestionHistoryCount)},
		{ContributionTenure, sc.tenure(p.TenureYears)},
	}

	return Result{
		Breakdown: breakdown,
		Total:     breakdown.Total(),
		Anomalies: sc.anomalies,
		ScoredAt:  now,
	}
}

type scorer struct {
	suggestion feedback.Suggestion
	cfg        *Configuration
	anomalies  []Anomaly
}

func (sc *scorer) flag(kind AnomalyKind, c Contribution, field, value, message string) {
	sc.anomalies = append(sc.anomalies, Anomaly{
		Kind:         kind,
		SuggestionID: sc.suggestion.ID,
		Contribution: c,
		Field:        field,
		Value:        value,
		Message:      message,
	})
}

func (sc *scorer) votes() Points {
	votes := sc.suggestion.Votes
	if votes < 0 {
		sc.flag(AnomalyOutOfRange, ContributionVotes, "votes", strconv.Itoa(votes), "negative vote count scored as 0")
		return 0
	}
	return Points(votes) * sc.cfg.PointsPerVote
}

func (sc *scorer) customerTier(customers int64) Points {
	if customers < 0 {
		sc.flag(AnomalyOutOfRange, ContributionCustomerTier, "totalCustomers",
			strconv.FormatInt(customers, 10), "negative customer count treated as 0")
		customers = 0
	}
	t := sc.cfg.CustomerTierThresholds
	i := band(len(t), func(i int) *int64 { return t[i].MaxCustomers }, customers)
	if i < 0 {
		return 0
	}
	return t[i].Points
}

func (sc *scorer) preventive(status client.PreventiveStatus) Points {
	if status == "" {
		status = client.PreventiveNotApplicable
	}
	pts, ok := sc.cfg.PreventiveStatusPoints[status]
	if !ok && status != client.PreventiveNotApplicable {
		sc.flag(AnomalyMissingLookup, ContributionPreventiveStatus, "preventiveStatus",
			string(status), "no points configured for preventive status")
	}
	return pts
}

func (sc *scorer) enterprise(isEnterprise bool) Points {
	if !isEnterprise {
		return 0
	}
	return sc.cfg.EnterpriseBonusPoints
}

func (sc *scorer) age(now time.Time) Points {
	created := sc.suggestion.CreatedAt
	months := 0
	switch {
	case created.IsZero():
		sc.flag(AnomalyOutOfRange, ContributionAge, "createdAt", "", "missing creation date treated as age 0")
	case created.After(now):
		sc.flag(AnomalyOutOfRange, ContributionAge, "createdAt", created.Format(time.RFC3339),
			"creation date is in the future; treated as age 0")
	default:
		months = MonthsBetween(created, now)
	}
	t := sc.cfg.AgeThresholds
	i := band(len(t), func(i int) *int { return t[i].MaxMonths }, months)
	if i < 0 {
		return 0
	}
	return t[i].Points
}

func (sc *scorer) nps(score int) Points {
	if score < 0 || score > 10 {
		sc.flag(AnomalyOutOfRange, ContributionNPS, "npsScore", strconv.Itoa(score), "NPS outside 0-10 scored as 0")
		return 0
	}
	pts, ok := sc.cfg.NPSPoints[score]
	if !ok {
		sc.flag(AnomalyMissingLookup, ContributionNPS, "npsScore", strconv.Itoa(score), "no points configured for NPS score")
	}
	return pts
}

func (sc *scorer) loyalty(l client.Loyalty) Points {
	if l == "" {
		l = client.LoyaltyNone
	}
	pts, ok := sc.cfg.LoyaltyPoints[l]
	if !ok && l != client.LoyaltyNone {
		sc.flag(AnomalyMissingLookup, ContributionLoyalty, "loyalty", string(l), "no points configured for loyalty level")
	}
	return pts
}

func (sc *scorer) history(count int) Points {
	if count < 0 {
		sc.flag(AnomalyOutOfRange, ContributionSuggestionHistory, "suggestionHistoryCount",
			strconv.Itoa(count), "negative suggestion history treated as 0")
		count = 0
	}
	t := sc.cfg.SuggestionCountThresholds
	i := band(len(t), func(i int) *int { return t[i].MaxCount }, count)
	if i < 0 {
		return 0
	}
	return t[i].Points
}

func (sc *scorer) tenure(years float64) Points {
	if years < 0 || math.IsNaN(years) {
		sc.flag(AnomalyOutOfRange, ContributionTenure, "tenureYears",
			strconv.FormatFloat(years, 'f', -1, 64), "invalid tenure treated as 0")
		years = 0
	}
	t := sc.cfg.TenureThresholds
	i := band(len(t), func(i int) *float64 { return t[i].MaxYears }, years)
	if i < 0 {
		return 0
	}
	return t[i].Points
}

// band returns the index of the first entry whose bound is >= v, treating a
// nil bound as unbounded. When v exceeds every bound the last index is
// returned; an empty table yields -1.
func band[T cmp.Ordered](n int, bound func(int) *T, v T) int {
	for i := 0; i < n; i++ {
		b := bound(i)
		if b == nil || cmp.Compare(*b, v) >= 0 {
			return i
		}
	}
	return n - 1
}

// MonthsBetween returns the number of whole calendar months from 'from' to
// 'to', or 0 when 'to' is not after 'from'. Both times are compared in UTC.
func MonthsBetween(from, to time.Time) int {
	from, to = from.UTC(), to.UTC()
	if !to.After(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() || (to.Day() == from.Day() && clockOf(to) < clockOf(from)) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

func clockOf(t time.Time) time.Duration {
	return t.Sub(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}
