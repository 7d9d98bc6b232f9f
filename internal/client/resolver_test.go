package client

import (
	"strings"
	"testing"
)

func testDirectory() []Profile {
	return []Profile{
		{
			Name:                   "Acme Retail",
			Email:                  "ops@acme.example",
			TotalCustomers:         12000,
			PreventiveStatus:       PreventiveAtRisk,
			NPSScore:               9,
			Loyalty:                LoyaltyFull,
			SuggestionHistoryCount: 4,
			TenureYears:            3.5,
		},
		{
			Name:           "Globex",
			Email:          "cto@globex.example",
			TotalCustomers: 300,
			Loyalty:        LoyaltyPartial,
			IsEnterprise:   true, // ignored: computed by the resolver
		},
	}
}

func TestResolve_MatchIsCaseInsensitive(t *testing.T) {
	p := Resolve("  OPS@Acme.Example ", testDirectory(), EnterpriseRules{})
	if p.Name != "Acme Retail" {
		t.Fatalf("expected Acme Retail, got %q", p.Name)
	}
	if p.TotalCustomers != 12000 || p.NPSScore != 9 || p.Loyalty != LoyaltyFull {
		t.Errorf("profile not returned verbatim: %+v", p)
	}
	if p.IsEnterprise {
		t.Error("expected non-enterprise without rules")
	}
}

func TestResolve_UnknownEmailGetsDefault(t *testing.T) {
	p := Resolve("someone@unknown.example", testDirectory(), EnterpriseRules{})
	want := Profile{
		Name:             "unknown.example",
		Email:            "someone@unknown.example",
		PreventiveStatus: PreventiveNotApplicable,
		Loyalty:          LoyaltyNone,
	}
	if p != want {
		t.Errorf("got %+v, want %+v", p, want)
	}
}

func TestResolve_DirectoryEnterpriseFlagIgnored(t *testing.T) {
	p := Resolve("cto@globex.example", testDirectory(), EnterpriseRules{})
	if p.IsEnterprise {
		t.Error("directory-supplied IsEnterprise should be recomputed")
	}
}

func TestResolve_AllowlistMatchesOrganizationName(t *testing.T) {
	rules := EnterpriseRules{Allowlist: []string{"acme retail"}}
	p := Resolve("ops@acme.example", testDirectory(), rules)
	if !p.IsEnterprise {
		t.Error("expected allow-listed organization to be enterprise")
	}
}

func TestResolve_AllowlistIsExactNotSubstring(t *testing.T) {
	rules := EnterpriseRules{Allowlist: []string{"Acme"}}
	p := Resolve("ops@acme.example", testDirectory(), rules)
	if p.IsEnterprise {
		t.Error("allow-list must not match on substrings")
	}
}

func TestResolve_AllowlistMatchesDomainForUnknownClient(t *testing.T) {
	rules := EnterpriseRules{Allowlist: []string{"initech.example"}}
	p := Resolve("bob@initech.example", nil, rules)
	if !p.IsEnterprise {
		t.Error("expected unmatched client to be compared by email domain")
	}
}

func TestResolve_DomainMapOverridesName(t *testing.T) {
	rules := EnterpriseRules{Domains: map[string]string{"Initech.Example": "Initech Corp"}}
	p := Resolve("bob@initech.example", testDirectory(), rules)
	if !p.IsEnterprise {
		t.Error("expected domain match to flag enterprise")
	}
	if p.Name != "Initech Corp" {
		t.Errorf("expected name override, got %q", p.Name)
	}
	if p.TotalCustomers != 0 || p.Loyalty != LoyaltyNone {
		t.Errorf("expected default profile values, got %+v", p)
	}
}

func TestResolve_DomainMapThenAllowlist(t *testing.T) {
	rules := EnterpriseRules{
		Allowlist: []string{"Initech Corp"},
		Domains:   map[string]string{"initech.example": "Initech Corp"},
	}
	p := Resolve("bob@initech.example", nil, rules)
	if !p.IsEnterprise || p.Name != "Initech Corp" {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestResolve_NeverFails(t *testing.T) {
	inputs := []string{"", "   ", "no-at-sign", "@", "trailing@", "a@b@c.example", strings.Repeat("x", 1024)}
	r := NewResolver(nil, EnterpriseRules{Domains: map[string]string{"": "Nobody"}})
	for _, in := range inputs {
		p := r.Resolve(in)
		if p.Email != in {
			t.Errorf("Resolve(%q).Email = %q", in, p.Email)
		}
		if p.Loyalty != LoyaltyNone {
			t.Errorf("Resolve(%q) expected default loyalty, got %q", in, p.Loyalty)
		}
		if p.IsEnterprise {
			t.Errorf("Resolve(%q) should not match the empty domain", in)
		}
	}
}

func TestResolve_NilResolver(t *testing.T) {
	var r *Resolver
	p := r.Resolve("x@y.example")
	if p.Name != "y.example" {
		t.Errorf("expected default profile from nil resolver, got %+v", p)
	}
}

func TestEmailDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a@b.example", "b.example"},
		{"A@B.Example", "b.example"},
		{"a@b@c.example", "c.example"},
		{"nodomain", ""},
		{"trailing@", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := EmailDomain(tc.in); got != tc.want {
			t.Errorf("EmailDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStaticDirectory_FirstWins(t *testing.T) {
	d := NewStaticDirectory([]Profile{
		{Name: "first", Email: "dup@x.example"},
		{Name: "second", Email: "DUP@x.example"},
		{Name: "blank"},
	})
	if d.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", d.Len())
	}
	p, ok := d.Lookup("dup@x.example")
	if !ok || p.Name != "first" {
		t.Errorf("expected first profile, got %+v (ok=%v)", p, ok)
	}
}

func TestDecodeProfiles(t *testing.T) {
	in := `[{"name":"Acme","email":"a@acme.example","totalCustomers":10,"preventiveStatus":"critical","npsScore":3,"loyalty":"partial","suggestionHistoryCount":2,"tenureYears":1.5}]`
	profiles, err := DecodeProfiles(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 1 || profiles[0].PreventiveStatus != PreventiveCritical || profiles[0].TenureYears != 1.5 {
		t.Errorf("unexpected profiles: %+v", profiles)
	}

	if _, err := DecodeProfiles(strings.NewReader("{")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
