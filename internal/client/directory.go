package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Directory looks up a client profile by submitter email.
type Directory interface {
	Lookup(email string) (Profile, bool)
}

// StaticDirectory is an in-memory, case-insensitive Directory snapshot.
// It is safe for concurrent reads once built.
type StaticDirectory struct {
	byEmail map[string]Profile
}

// NewStaticDirectory indexes the given profiles by normalized email. When two
// profiles share an email the first one wins.
func NewStaticDirectory(profiles []Profile) *StaticDirectory {
	d := &StaticDirectory{byEmail: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		key := NormalizeEmail(p.Email)
		if key == "" {
			continue
		}
		if _, exists := d.byEmail[key]; exists {
			continue
		}
		d.byEmail[key] = p
	}
	return d
}

// Lookup implements Directory.
func (d *StaticDirectory) Lookup(email string) (Profile, bool) {
	if d == nil {
		return Profile{}, false
	}
	p, ok := d.byEmail[NormalizeEmail(email)]
	return p, ok
}

// Len returns the number of indexed profiles.
func (d *StaticDirectory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byEmail)
}

// NormalizeEmail trims surrounding whitespace and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the lower-cased part after the last '@', or "" when
// the address has no domain.
func EmailDomain(email string) string {
	e := NormalizeEmail(email)
	at := strings.LastIndex(e, "@")
	if at < 0 || at == len(e)-1 {
		return ""
	}
	return e[at+1:]
}

// DecodeProfiles reads a JSON array of profiles, as exported by the client
// data source.
func DecodeProfiles(r io.Reader) ([]Profile, error) {
	var profiles []Profile
	if err := json.NewDecoder(r).Decode(&profiles); err != nil {
		return nil, fmt.Errorf("decoding client profiles: %w", err)
	}
	return profiles, nil
}
