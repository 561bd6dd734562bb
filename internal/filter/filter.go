// Package filter narrows enriched rows by employee-count window or sector.
package filter

import (
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/sizerange"
)

// Predicate decides whether a row is kept.
type Predicate func(r model.Record) bool

// Apply returns the rows that satisfy keep, in input order.
func Apply(records []model.Record, keep Predicate) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// BySize keeps rows whose size column parses to a bounded interval that
// overlaps w. Unparseable and open-ended sizes are dropped.
func BySize(column string, w sizerange.Window) Predicate {
	return func(r model.Record) bool {
		return w.MatchesSize(r.Get(column))
	}
}

// BySector keeps rows whose sector column exactly matches one of allowed.
func BySector(column string, allowed []string) Predicate {
	set := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		set[s] = struct{}{}
	}
	return func(r model.Record) bool {
		_, ok := set[r.Get(column)]
		return ok
	}
}
