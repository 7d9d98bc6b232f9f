package client

import "strings"

// Resolver maps submitter emails to profiles using a directory and the
// enterprise rules. The zero value resolves every email to a default profile.
type Resolver struct {
	directory Directory
	allowlist map[string]bool
	domains   map[string]string
}

// NewResolver builds a Resolver. A nil directory is treated as empty.
func NewResolver(directory Directory, rules EnterpriseRules) *Resolver {
	r := &Resolver{
		directory: directory,
		allowlist: make(map[string]bool, len(rules.Allowlist)),
		domains:   make(map[string]string, len(rules.Domains)),
	}
	for _, name := range rules.Allowlist {
		if key := foldName(name); key != "" {
			r.allowlist[key] = true
		}
	}
	for domain, company := range rules.Domains {
		if key := strings.ToLower(strings.TrimSpace(domain)); key != "" {
			r.domains[key] = company
		}
	}
	return r
}

// Resolve returns the profile for email. It never fails: unknown or malformed
// addresses resolve to DefaultProfile.
func (r *Resolver) Resolve(email string) Profile {
	var (
		p  Profile
		ok bool
	)
	if r != nil && r.directory != nil {
		p, ok = r.directory.Lookup(email)
	}
	if !ok {
		p = DefaultProfile(email)
	}

	p.IsEnterprise = false
	if r == nil {
		return p
	}

	// A domain mapping wins over the directory's organization name.
	if company, mapped := r.domains[EmailDomain(email)]; mapped {
		p.IsEnterprise = true
		if company != "" {
			p.Name = company
		}
	}
	if r.allowlist[foldName(p.Name)] {
		p.IsEnterprise = true
	}
	return p
}

// Resolve is a convenience wrapper for one-off lookups against a profile list.
func Resolve(email string, directory []Profile, rules EnterpriseRules) Profile {
	return NewResolver(NewStaticDirectory(directory), rules).Resolve(email)
}

// DefaultProfile is the profile used for submitters missing from the
// directory: zero customers, no preventive status, NPS 0, no loyalty, no
// history and no tenure. The organization name falls back to the email
// domain, or to the raw input when there is none.
func DefaultProfile(email string) Profile {
	name := EmailDomain(email)
	if name == "" {
		name = strings.TrimSpace(email)
	}
	return Profile{
		Name:             name,
		Email:            email,
		PreventiveStatus: PreventiveNotApplicable,
		Loyalty:          LoyaltyNone,
	}
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
