package scoring

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ValidationError describes one structural problem in a Configuration.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks the configuration's structure. Every problem found is
// reported; the returned error joins one *ValidationError per issue and can
// be inspected with errors.As.
func Validate(c *Configuration) error {
	if c == nil {
		return &ValidationError{Field: "configuration", Reason: "is nil"}
	}

	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	checkAscending(&errs, "customerTierThresholds", len(c.CustomerTierThresholds),
		func(i int) *int64 { return c.CustomerTierThresholds[i].MaxCustomers })
	checkAscending(&errs, "ageThresholds", len(c.AgeThresholds),
		func(i int) *int { return c.AgeThresholds[i].MaxMonths })
	checkAscending(&errs, "suggestionCountThresholds", len(c.SuggestionCountThresholds),
		func(i int) *int { return c.SuggestionCountThresholds[i].MaxCount })
	checkAscending(&errs, "tenureThresholds", len(c.TenureThresholds),
		func(i int) *float64 { return c.TenureThresholds[i].MaxYears })
	checkAscending(&errs, "tierThresholds", len(c.TierThresholds),
		func(i int) *Points { return c.TierThresholds[i].MaxScore })

	for i, t := range c.TenureThresholds {
		if t.MaxYears != nil && (math.IsNaN(*t.MaxYears) || math.IsInf(*t.MaxYears, 0)) {
			add(fmt.Sprintf("tenureThresholds[%d].maxYears", i), "must be a finite number")
		}
	}

	seen := make(map[string]int, len(c.TierThresholds))
	for i, t := range c.TierThresholds {
		label := strings.TrimSpace(t.Tier)
		if label == "" {
			add(fmt.Sprintf("tierThresholds[%d].tier", i), "label must not be empty")
			continue
		}
		if prev, dup := seen[label]; dup {
			add(fmt.Sprintf("tierThresholds[%d].tier", i), "label %q already used by entry %d", label, prev)
			continue
		}
		seen[label] = i
	}

	for score := range c.NPSPoints {
		if score < 0 || score > 10 {
			add("npsPoints", "score %d is outside 0-10", score)
		}
	}

	for i, name := range c.EnterpriseAllowlist {
		if strings.TrimSpace(name) == "" {
			add(fmt.Sprintf("enterpriseAllowlist[%d]", i), "organization name must not be empty")
		}
	}
	for domain := range c.EnterpriseDomains {
		d := strings.TrimSpace(domain)
		if d == "" {
			add("enterpriseDomains", "domain key must not be empty")
		} else if strings.Contains(d, "@") {
			add("enterpriseDomains", "domain %q must not contain '@'", domain)
		}
	}

	return errors.Join(errs...)
}

// checkAscending verifies a threshold table is non-empty, strictly ascending
// by bound, and unbounded (nil) only in its last entry.
func checkAscending[T cmp.Ordered](errs *[]error, field string, n int, bound func(int) *T) {
	if n == 0 {
		*errs = append(*errs, &ValidationError{Field: field, Reason: "must have at least one entry"})
		return
	}
	var prev *T
	for i := 0; i < n; i++ {
		b := bound(i)
		if b == nil {
			if i != n-1 {
				*errs = append(*errs, &ValidationError{
					Field:  fmt.Sprintf("%s[%d]", field, i),
					Reason: "only the last entry may be unbounded",
				})
			}
			continue
		}
		if prev != nil && cmp.Compare(*b, *prev) <= 0 {
			*errs = append(*errs, &ValidationError{
				Field:  fmt.Sprintf("%s[%d]", field, i),
				Reason: fmt.Sprintf("bound %v is not greater than previous bound %v; entries must be sorted ascending", *b, *prev),
			})
		}
		prev = b
	}
}

// ValidationErrors unpacks the individual issues from an error returned by
// Validate, including when it has been wrapped.
func ValidationErrors(err error) []*ValidationError {
	switch e := err.(type) {
	case nil:
		return nil
	case *ValidationError:
		return []*ValidationError{e}
	case interface{ Unwrap() []error }:
		var out []*ValidationError
		for _, inner := range e.Unwrap() {
			out = append(out, ValidationErrors(inner)...)
		}
		return out
	default:
		return ValidationErrors(errors.Unwrap(err))
	}
}
