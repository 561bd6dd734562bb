package model

import "strings"

// NotAvailable is the terminal size value recorded when a company's size
// could not be determined. It is cached like any other result.
const NotAvailable = "N/A"

// MaxContacts is the hard ceiling on contacts kept per company.
const MaxContacts = 4

// Company represents a company to be enriched.
//
// Name doubles as the cache key: two rows with the same Name share one cache
// entry even if they describe different companies.
type Company struct {
	Name   string `json:"name"`
	URL    string `json:"url,omitempty"`
	Sector string `json:"sector,omitempty"`

	// Source is the original input row; every column is carried through to
	// the output untouched.
	Source Record `json:"-"`
}

// Key returns the cache identity for the company.
func (c Company) Key() string {
	return c.Name
}

// HasProfileURL reports whether the company has a usable profile URL.
func (c Company) HasProfileURL() bool {
	return strings.HasPrefix(c.URL, "http")
}

// Contact is a decision-maker found for a company.
type Contact struct {
	Name string `json:"name"`
	Role string `json:"role"`
	URL  string `json:"url"`
}
