package enrich

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/pkg/linkedin"
)

// Task kinds.
const (
	KindSize     = "size"
	KindContacts = "contacts"
)

// ErrInvalidURL marks a company whose profile URL cannot be visited.
var ErrInvalidURL = eris.New("enrich: missing or invalid profile url")

// ErrSizeNotFound marks a profile page without a readable size field.
var ErrSizeNotFound = eris.New("enrich: size not found")

// SizeTask reads the employee-count text from the company's profile page.
type SizeTask struct {
	Fetcher linkedin.SizeFetcher
}

// Kind implements Task.
func (SizeTask) Kind() string { return KindSize }

// Fallback implements Task.
func (SizeTask) Fallback() string { return model.NotAvailable }

// Fetch implements Task. Companies without an http(s) URL fail without
// touching the browser.
func (t SizeTask) Fetch(ctx context.Context, c model.Company) (string, error) {
	if !c.HasProfileURL() {
		return "", eris.Wrapf(ErrInvalidURL, "enrich: url %q", c.URL)
	}
	text, ok := t.Fetcher.FetchSize(ctx, c.URL)
	if !ok {
		return "", ErrSizeNotFound
	}
	return text, nil
}

// ContactFinder finds contacts for a company name.
type ContactFinder interface {
	Find(ctx context.Context, company string) []model.Contact
}

// ContactsTask searches for decision-makers at the company.
type ContactsTask struct {
	Finder ContactFinder
}

// Kind implements Task.
func (ContactsTask) Kind() string { return KindContacts }

// Fallback implements Task. No contacts is cached as an empty list.
func (ContactsTask) Fallback() []model.Contact { return []model.Contact{} }

// Fetch implements Task. An empty result is not an error.
func (t ContactsTask) Fetch(ctx context.Context, c model.Company) ([]model.Contact, error) {
	found := t.Finder.Find(ctx, c.Name)
	if found == nil {
		found = []model.Contact{}
	}
	return found, nil
}
