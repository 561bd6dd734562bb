// Package rolenorm cleans scraped profile titles into short role labels.
//
// Normalization is an ordered list of pure text steps followed by a keyword
// gate. It is a noise filter, not an extractor: a title that survives may
// still be imperfect, and a useful title may be rejected.
package rolenorm

import (
	"regexp"
	"strings"
)

// Step transforms a title. company is the display name of the company the
// title was found for.
type Step struct {
	Name  string
	Apply func(title, company string) string
}

// DefaultLocations are place names removed from titles.
var DefaultLocations = []string{
	"India", "United States", "Singapore", "California", "New York", "UK",
	"USA", "San Francisco", "Bangalore", "Hyderabad", "Mumbai",
}

// DefaultLegalSuffixes are stripped as plain substrings, in this order. This
// is not word-boundary aware: "Incubation" loses its "Inc".
var DefaultLegalSuffixes = []string{"Ltd", "Limited", "Pvt", "Private", "LLC", "Group", "Inc"}

// DefaultSeparators are tried in order; the first one present splits the
// title and only the first non-empty segment is kept.
var DefaultSeparators = []string{"|", "-", ",", "•", "–"}

// DefaultKeywords gate acceptance: a cleaned title must contain one of them,
// ignoring case.
var DefaultKeywords = []string{
	"CEO", "Founder", "Marketing", "Director", "Manager", "VP", "Chief", "Head", "Lead", "Senior",
}

// StripCompanyName removes every case-insensitive occurrence of company.
func StripCompanyName() Step {
	return Step{
		Name: "company_name",
		Apply: func(title, company string) string {
			if company == "" {
				return title
			}
			re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(company))
			return re.ReplaceAllString(title, "")
		},
	}
}

// StripLocations removes the given place names along with an optional
// leading comma and whitespace.
func StripLocations(locations []string) Step {
	quoted := make([]string, len(locations))
	for i, l := range locations {
		quoted[i] = regexp.QuoteMeta(l)
	}
	re := regexp.MustCompile(`(?i),?\s*(` + strings.Join(quoted, "|") + `)`)
	return Step{
		Name: "locations",
		Apply: func(title, _ string) string {
			if len(locations) == 0 {
				return title
			}
			return re.ReplaceAllString(title, "")
		},
	}
}

// StripLegalSuffixes removes each suffix as a literal, case-sensitive
// substring.
func StripLegalSuffixes(suffixes []string) Step {
	return Step{
		Name: "legal_suffixes",
		Apply: func(title, _ string) string {
			for _, s := range suffixes {
				title = strings.ReplaceAll(title, s, "")
			}
			return title
		},
	}
}

// StripNonASCII drops every rune outside the ASCII range.
func StripNonASCII() Step {
	return Step{
		Name: "non_ascii",
		Apply: func(title, _ string) string {
			return strings.Map(func(r rune) rune {
				if r > 0x7f {
					return -1
				}
				return r
			}, title)
		},
	}
}

// FirstSegment splits on the first separator (in list order) that is present
// and yields at least one non-empty segment, keeping the first segment.
func FirstSegment(separators []string) Step {
	return Step{
		Name: "first_segment",
		Apply: func(title, _ string) string {
			for _, sep := range separators {
				if !strings.Contains(title, sep) {
					continue
				}
				for _, part := range strings.Split(title, sep) {
					if p := strings.TrimSpace(part); p != "" {
						return p
					}
				}
			}
			return title
		},
	}
}

// Normalizer runs the cleaning steps and the keyword gate.
type Normalizer struct {
	steps    []Step
	keywords []string
}

// New returns a Normalizer with the default step order and keywords.
func New() *Normalizer {
	return NewWithSteps(DefaultKeywords,
		StripCompanyName(),
		StripLocations(DefaultLocations),
		StripLegalSuffixes(DefaultLegalSuffixes),
		StripNonASCII(),
		FirstSegment(DefaultSeparators),
	)
}

// NewWithSteps builds a Normalizer from explicit steps.
func NewWithSteps(keywords []string, steps ...Step) *Normalizer {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &Normalizer{steps: steps, keywords: lowered}
}

// Normalize returns the canonical role for title, or "" if the cleaned text
// carries none of the role keywords.
func (n *Normalizer) Normalize(title, company string) string {
	if title == "" {
		return ""
	}
	for _, s := range n.steps {
		title = s.Apply(title, company)
	}
	lower := strings.ToLower(title)
	for _, k := range n.keywords {
		if strings.Contains(lower, k) {
			return strings.TrimSpace(title)
		}
	}
	return ""
}

// SplitTitle splits a search-result title of the form
// "Jane Doe - VP Marketing - Acme | LinkedIn" into the person's name and the
// remaining text.
func SplitTitle(title string) (name, rest string) {
	parts := strings.Split(title, " - ")
	return strings.TrimSpace(parts[0]), strings.Join(parts[1:], " - ")
}
