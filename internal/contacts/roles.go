package contacts

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Roles is the priority-ordered list of titles searched per company, plus
// groups of titles that are interchangeable.
type Roles struct {
	Priority    []string            `yaml:"priority"`
	Equivalents map[string][]string `yaml:"equivalents"`
}

// DefaultRoles returns the built-in search order.
func DefaultRoles() Roles {
	return Roles{
		Priority: []string{
			"CEO",
			"Founder",
			"Head Marketing",
			"VP Marketing",
			"Vice President Marketing",
			"Chief Marketing Officer",
			"Director",
			"Senior Marketing Manager",
			"Marketing Manager",
			"Manager",
		},
		Equivalents: map[string][]string{
			"VP Marketing":             {"Vice President Marketing"},
			"Vice President Marketing": {"VP Marketing"},
		},
	}
}

// LoadRoles reads a roles file. An empty path returns DefaultRoles.
//
// The file has a top-level "roles" key:
//
//	roles:
//	  priority: [CEO, Founder, VP Marketing, Vice President Marketing]
//	  equivalents:
//	    VP Marketing: [Vice President Marketing]
//
// Equivalences are made symmetric on load.
func LoadRoles(path string) (Roles, error) {
	if path == "" {
		return DefaultRoles(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Roles{}, eris.Wrapf(err, "contacts: read roles %s", path)
	}

	var wrapper struct {
		Roles Roles `yaml:"roles"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Roles{}, eris.Wrap(err, "contacts: parse roles")
	}

	r := wrapper.Roles
	if err := r.Validate(); err != nil {
		return Roles{}, err
	}
	r.Equivalents = symmetric(r.Equivalents)
	return r, nil
}

// Validate checks that at least one role is listed and none are blank.
func (r Roles) Validate() error {
	if len(r.Priority) == 0 {
		return eris.New("contacts: roles priority list is empty")
	}
	for i, role := range r.Priority {
		if strings.TrimSpace(role) == "" {
			return eris.Errorf("contacts: role %d is blank", i)
		}
	}
	return nil
}

// EquivalentsOf returns the titles interchangeable with role.
func (r Roles) EquivalentsOf(role string) []string {
	return r.Equivalents[role]
}

func symmetric(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in)*2)
	add := func(from, to string) {
		if from == to {
			return
		}
		for _, existing := range out[from] {
			if existing == to {
				return
			}
		}
		out[from] = append(out[from], to)
	}
	for role, eqs := range in {
		for _, eq := range eqs {
			add(role, eq)
			add(eq, role)
		}
	}
	return out
}
