// Package client resolves suggestion submitters to client profiles.
package client

// Loyalty describes how much of a client's spend is with us.
type Loyalty string

// Loyalty levels.
const (
	LoyaltyFull    Loyalty = "full"
	LoyaltyPartial Loyalty = "partial"
	LoyaltyNone    Loyalty = "none"
)

// PreventiveStatus is the churn-risk label assigned by customer success.
// Labels outside the known set are kept verbatim so a scoring configuration
// can still assign points to them.
type PreventiveStatus string

// Known preventive statuses.
const (
	PreventiveNotApplicable PreventiveStatus = "n/a"
	PreventiveMonitoring    PreventiveStatus = "monitoring"
	PreventiveAtRisk        PreventiveStatus = "at_risk"
	PreventiveCritical      PreventiveStatus = "critical"
)

// Profile is a resolved snapshot of a client organization.
type Profile struct {
	// Name identifies the organization.
	Name string `json:"name"`

	// Email is the submitter address this profile is keyed by.
	Email string `json:"email"`

	// TotalCustomers is the size of the client's own customer base.
	TotalCustomers int64 `json:"totalCustomers"`

	PreventiveStatus PreventiveStatus `json:"preventiveStatus"`

	// NPSScore is the client's most recent Net Promoter Score answer (0-10).
	NPSScore int `json:"npsScore"`

	Loyalty Loyalty `json:"loyalty"`

	// SuggestionHistoryCount is how many suggestions this client has
	// submitted historically.
	SuggestionHistoryCount int `json:"suggestionHistoryCount"`

	// TenureYears is the time since onboarding, in years.
	TenureYears float64 `json:"tenureYears"`

	// IsEnterprise is computed by the resolver from the enterprise rules;
	// any value supplied by the directory is ignored.
	IsEnterprise bool `json:"isEnterprise"`
}

// EnterpriseRules are the declarative tables used to flag enterprise clients.
type EnterpriseRules struct {
	// Allowlist holds organization names treated as enterprise.
	Allowlist []string

	// Domains maps an email domain to the organization name it belongs to.
	Domains map[string]string
}
