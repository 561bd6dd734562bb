package contacts

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Finder walks the role priority list for a company.
type Finder struct {
	query       *QueryClient
	roles       Roles
	maxContacts int
}

// NewFinder creates a Finder. maxContacts <= 0 uses model.MaxContacts.
func NewFinder(query *QueryClient, roles Roles, maxContacts int) *Finder {
	if maxContacts <= 0 || maxContacts > model.MaxContacts {
		maxContacts = model.MaxContacts
	}
	return &Finder{query: query, roles: roles, maxContacts: maxContacts}
}

// Find returns up to maxContacts contacts for company. Once a role yields a
// hit, its equivalent titles are not searched for this company. An empty
// slice means nothing was found; it is never nil.
func (f *Finder) Find(ctx context.Context, company string) []model.Contact {
	l := NewLookup(company, f.maxContacts)
	skipped := make(map[string]struct{})

	for _, role := range f.roles.Priority {
		if l.Full() || ctx.Err() != nil {
			break
		}
		if _, skip := skipped[role]; skip {
			zap.L().Debug("contacts: skipping equivalent role",
				zap.String("company", company), zap.String("role", role))
			continue
		}

		if found := f.query.Search(ctx, l, role); len(found) > 0 {
			for _, eq := range f.roles.EquivalentsOf(role) {
				skipped[eq] = struct{}{}
			}
		}
	}
	return l.Contacts()
}
