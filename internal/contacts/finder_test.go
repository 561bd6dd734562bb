package contacts

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/pkg/serper"
	"github.com/sells-group/enrich-cli/pkg/serper/mocks"
)

// queryLog records every query issued through a mock.
type queryLog struct {
	mu      sync.Mutex
	queries []string
}

func (q *queryLog) add(s string) {
	q.mu.Lock()
	q.queries = append(q.queries, s)
	q.mu.Unlock()
}

func (q *queryLog) containing(sub string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, s := range q.queries {
		if strings.Contains(s, sub) {
			n++
		}
	}
	return n
}

func TestFind_SkipsEquivalentRoleAfterHit(t *testing.T) {
	t.Parallel()

	log := &queryLog{}
	m := mocks.NewMockClient(t)
	m.On("Search", mock.Anything, mock.Anything, 5).Return(
		func(_ context.Context, query string, _ int) (*serper.SearchResponse, error) {
			log.add(query)
			if query == "VP Marketing at Acme" {
				return hits("Jane Doe - VP Marketing", "https://www.linkedin.com/in/janedoe"), nil
			}
			return hits(), nil
		})

	roles := Roles{
		Priority: []string{"VP Marketing", "Vice President Marketing", "Director"},
		Equivalents: map[string][]string{
			"VP Marketing":             {"Vice President Marketing"},
			"Vice President Marketing": {"VP Marketing"},
		},
	}
	f := NewFinder(NewQueryClient(m, nil, testQueryConfig(&waitRecorder{})), roles, 4)
	got := f.Find(context.Background(), "Acme")

	require.Len(t, got, 1)
	assert.Equal(t, "VP Marketing", got[0].Role)
	assert.Zero(t, log.containing("Vice President Marketing"))
	assert.Equal(t, 3, log.containing("Director"))
}

func TestFind_EquivalentStillQueriedWhenFirstRoleEmpty(t *testing.T) {
	t.Parallel()

	log := &queryLog{}
	m := mocks.NewMockClient(t)
	m.On("Search", mock.Anything, mock.Anything, 5).Return(
		func(_ context.Context, query string, _ int) (*serper.SearchResponse, error) {
			log.add(query)
			return hits(), nil
		})

	f := NewFinder(NewQueryClient(m, nil, testQueryConfig(&waitRecorder{})), DefaultRoles(), 4)
	got := f.Find(context.Background(), "Acme")

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 3, log.containing("Vice President Marketing"))
	// Ten roles, three templates each.
	assert.Len(t, log.queries, 30)
}

func TestFind_StopsWhenFull(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockClient(t)
	m.On("Search", mock.Anything, "CEO at Acme", 5).Return(hits(
		"A - CEO", "https://www.linkedin.com/in/a",
		"B - CEO", "https://www.linkedin.com/in/b",
	), nil).Once()
	m.On("Search", mock.Anything, "Founder at Acme", 5).Return(hits(
		"C - Founder", "https://www.linkedin.com/in/c",
		"D - Founder", "https://www.linkedin.com/in/d",
		"E - Founder", "https://www.linkedin.com/in/e",
	), nil).Once()

	f := NewFinder(NewQueryClient(m, nil, testQueryConfig(&waitRecorder{})), DefaultRoles(), 4)
	got := f.Find(context.Background(), "Acme")

	require.Len(t, got, 4)
	assert.Equal(t, []string{"A", "B", "C", "D"}, []string{got[0].Name, got[1].Name, got[2].Name, got[3].Name})
	m.AssertNumberOfCalls(t, "Search", 2)
}

func TestFind_UniqueURLs(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockClient(t)
	m.On("Search", mock.Anything, mock.Anything, 5).Return(hits(
		"A - CEO", "https://www.linkedin.com/in/a",
		"A again - Founder", "https://www.linkedin.com/in/a",
		"B - Director", "https://www.linkedin.com/in/b",
	), nil)

	f := NewFinder(NewQueryClient(m, nil, testQueryConfig(&waitRecorder{})), DefaultRoles(), 4)
	got := f.Find(context.Background(), "Acme")

	seen := map[string]bool{}
	for _, c := range got {
		assert.False(t, seen[c.URL], "duplicate url %s", c.URL)
		seen[c.URL] = true
	}
	assert.Len(t, got, 2)
}

func TestNewFinder_ClampsMaxContacts(t *testing.T) {
	t.Parallel()

	f := NewFinder(nil, DefaultRoles(), 10)
	assert.Equal(t, 4, f.maxContacts)

	f = NewFinder(nil, DefaultRoles(), 0)
	assert.Equal(t, 4, f.maxContacts)

	f = NewFinder(nil, DefaultRoles(), 2)
	assert.Equal(t, 2, f.maxContacts)
}
