package scoring

import "github.com/blackwell-systems/feedbackrank/internal/client"

// Default tier colors, shared with the terminal palette.
const (
	ColorTier5  = "#90a4ae"
	ColorTier4  = "#64b5f6"
	ColorTier3  = "#66bb6a"
	ColorTier2  = "#fff59d"
	ColorTier1  = "#ffb74d"
	ColorUrgent = "#ef5350"
)

// DefaultConfiguration returns the seed ruleset used when no scoring file or
// stored configuration exists. The numbers are product defaults, not
// invariants; every value can be overridden by configuration.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		PointsPerVote: 2,
		CustomerTierThresholds: []CustomerTierThreshold{
			{MaxCustomers: Bound[int64](5000), Points: 10},
			{MaxCustomers: Bound[int64](10000), Points: 20},
			{MaxCustomers: Bound[int64](15000), Points: 30},
			{MaxCustomers: Bound[int64](20000), Points: 40},
			{MaxCustomers: nil, Points: 50},
		},
		PreventiveStatusPoints: map[client.PreventiveStatus]Points{
			client.PreventiveNotApplicable: 0,
			client.PreventiveMonitoring:    25,
			client.PreventiveAtRisk:        50,
			client.PreventiveCritical:      100,
		},
		EnterpriseBonusPoints: 100,
		AgeThresholds: []AgeThreshold{
			{MaxMonths: Bound(1), Points: 1},
			{MaxMonths: Bound(3), Points: 3},
			{MaxMonths: Bound(6), Points: 5},
			{MaxMonths: Bound(12), Points: 8},
			{MaxMonths: nil, Points: 10},
		},
		// Detractors (0-6) score highest, promoters (9-10) lowest.
		NPSPoints: map[int]Points{
			0: 30, 1: 30, 2: 30, 3: 30, 4: 30, 5: 30, 6: 30,
			7: 20, 8: 20,
			9: 10, 10: 10,
		},
		LoyaltyPoints: map[client.Loyalty]Points{
			client.LoyaltyFull:    50,
			client.LoyaltyPartial: 25,
			client.LoyaltyNone:    0,
		},
		SuggestionCountThresholds: []CountThreshold{
			{MaxCount: Bound(1), Points: 75},
			{MaxCount: Bound(3), Points: 50},
			{MaxCount: Bound(5), Points: 30},
			{MaxCount: Bound(10), Points: 15},
			{MaxCount: nil, Points: 5},
		},
		TenureThresholds: []TenureThreshold{
			{MaxYears: Bound(1.0), Points: 0},
			{MaxYears: Bound(3.0), Points: 10},
			{MaxYears: Bound(5.0), Points: 20},
			{MaxYears: nil, Points: 30},
		},
		TierThresholds: []TierThreshold{
			{MaxScore: Bound[Points](100), Tier: "5", Color: ColorTier5},
			{MaxScore: Bound[Points](150), Tier: "4", Color: ColorTier4},
			{MaxScore: Bound[Points](250), Tier: "3", Color: ColorTier3},
			{MaxScore: Bound[Points](300), Tier: "2", Color: ColorTier2},
			{MaxScore: Bound[Points](400), Tier: "1", Color: ColorTier1},
			{MaxScore: nil, Tier: "Urgent", Color: ColorUrgent},
		},
		EnterpriseAllowlist: []string{},
		EnterpriseDomains:   map[string]string{},
	}
}
