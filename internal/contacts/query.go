// Package contacts finds decision-makers for a company by searching for
// public profile pages under a priority list of job titles.
package contacts

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/metrics"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/internal/rolenorm"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

// ProfilePattern marks a search hit as a personal profile page.
const ProfilePattern = "linkedin.com/in/"

// DefaultTemplates are the query phrasings tried for each role, in order.
// {role} and {company} are substituted.
var DefaultTemplates = []string{
	"{role} at {company}",
	"{company} {role}",
	"{role} {company} LinkedIn",
}

// QueryConfig tunes a QueryClient.
type QueryConfig struct {
	Templates       []string
	ResultsPerQuery int
	Retry           resilience.RetryConfig
}

// QueryClient turns one (company, role) lookup into a sequence of search
// queries and collects the profile hits.
type QueryClient struct {
	search serper.Client
	norm   *rolenorm.Normalizer
	cfg    QueryConfig
}

// NewQueryClient creates a QueryClient. A nil normalizer uses rolenorm.New.
func NewQueryClient(search serper.Client, norm *rolenorm.Normalizer, cfg QueryConfig) *QueryClient {
	if norm == nil {
		norm = rolenorm.New()
	}
	if len(cfg.Templates) == 0 {
		cfg.Templates = DefaultTemplates
	}
	if cfg.ResultsPerQuery <= 0 {
		cfg.ResultsPerQuery = 5
	}
	cfg.Retry.ShouldRetry = isRateLimited
	return &QueryClient{search: search, norm: norm, cfg: cfg}
}

// Lookup accumulates contacts for one company across every role and
// template tried. A profile URL is accepted at most once per Lookup.
type Lookup struct {
	company  string
	limit    int
	seen     map[string]struct{}
	contacts []model.Contact
}

// NewLookup starts an empty lookup for company capped at limit contacts.
func NewLookup(company string, limit int) *Lookup {
	if limit <= 0 {
		limit = model.MaxContacts
	}
	return &Lookup{
		company: company,
		limit:   limit,
		seen:    make(map[string]struct{}),
	}
}

// Contacts returns the accepted contacts in discovery order.
func (l *Lookup) Contacts() []model.Contact {
	out := make([]model.Contact, len(l.contacts))
	copy(out, l.contacts)
	return out
}

// Full reports whether the cap has been reached.
func (l *Lookup) Full() bool {
	return len(l.contacts) >= l.limit
}

// Search tries each template for role until one yields at least one new
// contact or the lookup is full. It returns the contacts added by this call.
// Failures are logged and never returned: an empty result is normal.
func (q *QueryClient) Search(ctx context.Context, l *Lookup, role string) []model.Contact {
	start := len(l.contacts)
	log := zap.L().With(zap.String("company", l.company), zap.String("role", role))

	for _, tmpl := range q.cfg.Templates {
		if l.Full() || ctx.Err() != nil {
			break
		}
		query := expand(tmpl, role, l.company)

		resp, err := q.query(ctx, query)
		if err != nil {
			log.Warn("contacts: query abandoned", zap.String("query", query), zap.Error(err))
			continue
		}

		if q.accept(l, role, resp.Organic) > 0 {
			break
		}
	}

	added := l.contacts[start:]
	return append([]model.Contact(nil), added...)
}

func (q *QueryClient) query(ctx context.Context, query string) (*serper.SearchResponse, error) {
	retry := q.cfg.Retry
	logRetry := resilience.RetryLogger("serper", query)
	retry.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.ObserveRateLimitRetry()
		logRetry(attempt, delay, err)
	}

	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*serper.SearchResponse, error) {
		resp, err := q.search.Search(ctx, query, q.cfg.ResultsPerQuery)
		switch {
		case err == nil:
			metrics.ObserveSearch("ok")
		case isRateLimited(err):
			metrics.ObserveSearch("rate_limited")
		default:
			metrics.ObserveSearch("error")
		}
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &serper.SearchResponse{}, nil
	}
	return resp, nil
}

// accept filters hits into l and returns how many were added.
func (q *QueryClient) accept(l *Lookup, role string, hits []serper.Result) int {
	added := 0
	for _, hit := range hits {
		if l.Full() {
			break
		}
		if !strings.Contains(hit.Link, ProfilePattern) {
			continue
		}
		if _, dup := l.seen[hit.Link]; dup {
			continue
		}

		name, rest := rolenorm.SplitTitle(hit.Title)
		if name == "" {
			continue
		}
		canonical := q.norm.Normalize(rest, l.company)
		if canonical == "" {
			canonical = role
		}

		l.seen[hit.Link] = struct{}{}
		l.contacts = append(l.contacts, model.Contact{Name: name, Role: canonical, URL: hit.Link})
		added++
	}
	return added
}

func expand(tmpl, role, company string) string {
	return strings.NewReplacer("{role}", role, "{company}", company).Replace(tmpl)
}

func isRateLimited(err error) bool {
	return errors.Is(err, serper.ErrRateLimited)
}
