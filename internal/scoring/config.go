package scoring

import (
	"maps"
	"slices"

	"github.com/blackwell-systems/feedbackrank/internal/client"
)

// Configuration is the ruleset driving the score calculator and tier
// classifier. Treat a loaded Configuration as immutable: edits should be made
// on a Clone and persisted as a new version.
type Configuration struct {
	PointsPerVote             Points                             `json:"pointsPerVote" yaml:"pointsPerVote"`
	CustomerTierThresholds    []CustomerTierThreshold            `json:"customerTierThresholds" yaml:"customerTierThresholds"`
	PreventiveStatusPoints    map[client.PreventiveStatus]Points `json:"preventiveStatusPoints" yaml:"preventiveStatusPoints"`
	EnterpriseBonusPoints     Points                             `json:"enterpriseBonusPoints" yaml:"enterpriseBonusPoints"`
	AgeThresholds             []AgeThreshold                     `json:"ageThresholds" yaml:"ageThresholds"`
	NPSPoints                 map[int]Points                     `json:"npsPoints" yaml:"npsPoints"`
	LoyaltyPoints             map[client.Loyalty]Points          `json:"loyaltyPoints" yaml:"loyaltyPoints"`
	SuggestionCountThresholds []CountThreshold                   `json:"suggestionCountThresholds" yaml:"suggestionCountThresholds"`
	TenureThresholds          []TenureThreshold                  `json:"tenureThresholds" yaml:"tenureThresholds"`
	TierThresholds            []TierThreshold                    `json:"tierThresholds" yaml:"tierThresholds"`
	EnterpriseAllowlist       []string                           `json:"enterpriseAllowlist" yaml:"enterpriseAllowlist"`
	EnterpriseDomains         map[string]string                  `json:"enterpriseDomains" yaml:"enterpriseDomains"`
}

// CustomerTierThreshold awards Points to clients with at most MaxCustomers
// customers. A nil bound is unbounded and only allowed on the last entry.
type CustomerTierThreshold struct {
	MaxCustomers *int64 `json:"maxCustomers" yaml:"maxCustomers"`
	Points       Points `json:"points" yaml:"points"`
}

// AgeThreshold awards Points to suggestions at most MaxMonths old.
type AgeThreshold struct {
	MaxMonths *int   `json:"maxMonths" yaml:"maxMonths"`
	Points    Points `json:"points" yaml:"points"`
}

// CountThreshold awards Points to clients with at most MaxCount historical
// suggestions.
type CountThreshold struct {
	MaxCount *int   `json:"maxCount" yaml:"maxCount"`
	Points   Points `json:"points" yaml:"points"`
}

// TenureThreshold awards Points to clients onboarded at most MaxYears ago.
type TenureThreshold struct {
	MaxYears *float64 `json:"maxYears" yaml:"maxYears"`
	Points   Points   `json:"points" yaml:"points"`
}

// TierThreshold maps scores up to MaxScore (inclusive) to a tier. The last
// entry is the terminal tier and conventionally has no bound.
type TierThreshold struct {
	MaxScore *Points `json:"maxScore" yaml:"maxScore"`
	Tier     string  `json:"tier" yaml:"tier"`
	Color    string  `json:"color" yaml:"color"`
}

// EnterpriseRules returns the enterprise tables in the shape the client
// resolver consumes.
func (c *Configuration) EnterpriseRules() client.EnterpriseRules {
	return client.EnterpriseRules{
		Allowlist: c.EnterpriseAllowlist,
		Domains:   c.EnterpriseDomains,
	}
}

// TierLabels returns the tier labels from least to most urgent.
func (c *Configuration) TierLabels() []string {
	labels := make([]string, len(c.TierThresholds))
	for i, t := range c.TierThresholds {
		labels[i] = t.Tier
	}
	return labels
}

// TierRank returns the rank of the tier with the given label.
func (c *Configuration) TierRank(label string) (int, bool) {
	for i, t := range c.TierThresholds {
		if t.Tier == label {
			return i, true
		}
	}
	return 0, false
}

// PreventiveStatuses returns the statuses with configured points, sorted.
func (c *Configuration) PreventiveStatuses() []client.PreventiveStatus {
	keys := slices.Collect(maps.Keys(c.PreventiveStatusPoints))
	slices.Sort(keys)
	return keys
}

// Clone returns a deep copy of the configuration.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	out := *c
	out.CustomerTierThresholds = make([]CustomerTierThreshold, len(c.CustomerTierThresholds))
	for i, t := range c.CustomerTierThresholds {
		out.CustomerTierThresholds[i] = CustomerTierThreshold{MaxCustomers: clonePtr(t.MaxCustomers), Points: t.Points}
	}
	out.AgeThresholds = make([]AgeThreshold, len(c.AgeThresholds))
	for i, t := range c.AgeThresholds {
		out.AgeThresholds[i] = AgeThreshold{MaxMonths: clonePtr(t.MaxMonths), Points: t.Points}
	}
	out.SuggestionCountThresholds = make([]CountThreshold, len(c.SuggestionCountThresholds))
	for i, t := range c.SuggestionCountThresholds {
		out.SuggestionCountThresholds[i] = CountThreshold{MaxCount: clonePtr(t.MaxCount), Points: t.Points}
	}
	out.TenureThresholds = make([]TenureThreshold, len(c.TenureThresholds))
	for i, t := range c.TenureThresholds {
		out.TenureThresholds[i] = TenureThreshold{MaxYears: clonePtr(t.MaxYears), Points: t.Points}
	}
	out.TierThresholds = make([]TierThreshold, len(c.TierThresholds))
	for i, t := range c.TierThresholds {
		out.TierThresholds[i] = TierThreshold{MaxScore: clonePtr(t.MaxScore), Tier: t.Tier, Color: t.Color}
	}
	out.PreventiveStatusPoints = maps.Clone(c.PreventiveStatusPoints)
	out.NPSPoints = maps.Clone(c.NPSPoints)
	out.LoyaltyPoints = maps.Clone(c.LoyaltyPoints)
	out.EnterpriseAllowlist = slices.Clone(c.EnterpriseAllowlist)
	out.EnterpriseDomains = maps.Clone(c.EnterpriseDomains)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Bound returns a pointer to v, for building threshold tables in code.
func Bound[T any](v T) *T {
	return &v
}
