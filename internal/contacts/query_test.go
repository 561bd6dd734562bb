package contacts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/pkg/serper"
	"github.com/sells-group/enrich-cli/pkg/serper/mocks"
)

// waitRecorder captures backoff delays instead of sleeping.
type waitRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.delays = append(w.delays, d)
	w.mu.Unlock()
	return ctx.Err()
}

func testQueryConfig(w *waitRecorder) QueryConfig {
	retry := resilience.DefaultRetryConfig()
	retry.Wait = w.wait
	return QueryConfig{ResultsPerQuery: 5, Retry: retry}
}

func hits(pairs ...string) *serper.SearchResponse {
	resp := &serper.SearchResponse{}
	for i := 0; i+1 < len(pairs); i += 2 {
		resp.Organic = append(resp.Organic, serper.Result{Title: pairs[i], Link: pairs[i+1]})
	}
	return resp
}

func rateLimited() error {
	return eris.Wrap(serper.ErrRateLimited, "serper: status 429")
}

func TestSearch_FirstTemplateSuccessShortCircuits(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockClient(t)
	m.On("Search", mock.Anything, "CEO at Acme", 5).
		Return(hits("Jane Doe - CEO", "https://www.linkedin.com/in/janedoe"), nil).Once()

	q := NewQueryClient(m, nil, testQueryConfig(&waitRecorder{}))
	l := NewLookup("Acme", 4)
	got := q.Search(context.Background(), l, "CEO")

	require.Len(t, got, 1)
	assert.Equal(t, "Jane Doe", got[0].Name)
	assert.Equal(t, "CEO", got[0].Role)
	assert.Equal(t, "https://www.linkedin.com/in/janedoe", got[0].URL)
	m.AssertNumberOfCalls(t, "Search", 1)
}

func TestSearch_FallsThroughTemplatesUntilHit(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockClient(t)
	m.On("Search", mock.Anything, "CEO at Acme", 5).Return(hits(), nil).Once()
	m.On("Search", mock.Anything, "Acme CEO", 5).
		Return(hits("Not a profile", "https://acme.com/team"), nil).Once()
	m.On("Search", mock.Anything, "CEO Acme LinkedIn", 5).
		Return(hits("Jane Doe - CEO", "https://www.linkedin.com/in/janedoe"), nil).Once()

	q := NewQueryClient(m, nil, testQueryConfig(&waitRecorder{}))
	got := q.Search(context.Background(), NewLookup("Acme", 4), "CEO")

	require.Len(t, got, 1)
	assert.Equal(t, "Jane Doe", got[0].Name)
}

func TestSearch_RetriesSameTemplateOnRateLimit(t *testing.T) {
	t.Parallel()

	w := &waitRecorder{}
	m := mocks.NewMockClient(t)
	m.On("Search", mock.Anything, "CEO at Acme", 5).Return(nil, rateLimited()).Once()
	m.On("Search", mock.Anything, "CEO at Acme", 5).
		Return(hits("Jane Doe - CEO", "https://www.linkedin.com/in/janedoe"), nil).Once()

	q := NewQueryClient(m, nil, testQueryConfig(w))
	got := q.Search(context.Background(), NewLookup("Acme", 4), "CEO")

	require.Len(t, got, 1)
	assert.Equal(t, []time.Duration{time.Second}, w.delays)
}

func TestSearch_RateLimitedEveryAttempt(t *testing.T) {
	t.Parallel()

	w := &waitRecorder{}
	m := mocks.NewMockClient(t)
	m.On("Search", mock.Anything, mock.Anything, 5).Return(nil, rateLimited())

	q := NewQueryClient(m, nil, testQueryConfig(w))
	got := q.Search(context.Background(), NewLookup("Acme", 4), "CEO")

	assert.Empty(t, got)
	// Three templates, three attempts each, two waits per template.
	m.AssertNumberOfCalls(t, "Search", 9)
	require.Len(t, w.delays, 6)
	for i := 0; i < len(w.delays); i += 2 {
		assert.Equal(t, time.Second, w.delays[i])
		assert.GreaterOrEqual(t, w.delays[i+1], 2*w.delays[i])
	}
}

func TestSearch_GenericErrorAbandonsTemplate(t *testing.T) {
	t.Parallel()

	w := &waitRecorder{}
	m := mocks.NewMockClient(t)
	m.On("Search", mock.Anything, "CEO at Acme", 5).Return(nil, errors.New("serper: unexpected status 500")).Once()
	m.On("Search", mock.Anything, "Acme CEO", 5).
		Return(hits("Jane Doe - CEO", "https://www.linkedin.com/in/janedoe"), nil).Once()

	q := NewQueryClient(m, nil, testQueryConfig(w))
	got := q.Search(context.Background(), NewLookup("Acme", 4), "CEO")

	require.Len(t, got, 1)
	assert.Empty(t, w.delays)
}

func TestSearch_DedupAcrossTemplatesAndRoles(t *testing.T) {
	t.Parallel()

	same := hits("Jane Doe - CEO", "https://www.linkedin.com/in/janedoe")
	m := mocks.NewMockClient(t)
	m.On("Search", mock.Anything, mock.Anything, 5).Return(same, nil)

	q := NewQueryClient(m, nil, testQueryConfig(&waitRecorder{}))
	l := NewLookup("Acme", 4)

	first := q.Search(context.Background(), l, "CEO")
	second := q.Search(context.Background(), l, "Founder")

	assert.Len(t, first, 1)
	assert.Empty(t, second)
	assert.Len(t, l.Contacts(), 1)
	// The duplicate never counts as a hit, so every Founder template runs.
	m.AssertNumberOfCalls(t, "Search", 4)
}

func TestSearch_FiltersAndNormalizes(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockClient(t)
	m.On("Search", mock.Anything, "Director at Acme", 5).Return(hits(
		"Acme Careers", "https://www.linkedin.com/company/acme",
		" - Director", "https://www.linkedin.com/in/noname",
		"Bob Roe - Director of Sales, Acme India", "https://www.linkedin.com/in/bobroe",
		"Ann Lee - Software Engineer", "https://www.linkedin.com/in/annlee",
	), nil).Once()

	q := NewQueryClient(m, nil, testQueryConfig(&waitRecorder{}))
	got := q.Search(context.Background(), NewLookup("Acme", 4), "Director")

	require.Len(t, got, 2)
	assert.Equal(t, "Bob Roe", got[0].Name)
	assert.Equal(t, "Director of Sales", got[0].Role)
	// Normalization rejects the title, so the requested role is used.
	assert.Equal(t, "Ann Lee", got[1].Name)
	assert.Equal(t, "Director", got[1].Role)
}

func TestSearch_StopsAtLimit(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockClient(t)
	m.On("Search", mock.Anything, "CEO at Acme", 5).Return(hits(
		"A - CEO", "https://www.linkedin.com/in/a",
		"B - CEO", "https://www.linkedin.com/in/b",
		"C - CEO", "https://www.linkedin.com/in/c",
	), nil).Once()

	q := NewQueryClient(m, nil, testQueryConfig(&waitRecorder{}))
	l := NewLookup("Acme", 2)
	got := q.Search(context.Background(), l, "CEO")

	assert.Len(t, got, 2)
	assert.True(t, l.Full())

	// A full lookup issues no further queries.
	assert.Empty(t, q.Search(context.Background(), l, "Founder"))
	m.AssertNumberOfCalls(t, "Search", 1)
}

func TestSearch_CancelledContextIssuesNoQueries(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := NewQueryClient(m, nil, testQueryConfig(&waitRecorder{}))
	assert.Empty(t, q.Search(ctx, NewLookup("Acme", 4), "CEO"))
	m.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestExpand(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "VP Marketing at Acme", expand("{role} at {company}", "VP Marketing", "Acme"))
	assert.Equal(t, "Acme VP Marketing", expand("{company} {role}", "VP Marketing", "Acme"))
	assert.Equal(t, "VP Marketing Acme LinkedIn", expand("{role} {company} LinkedIn", "VP Marketing", "Acme"))
}

func TestNewLookup_DefaultLimit(t *testing.T) {
	t.Parallel()

	l := NewLookup("Acme", 0)
	assert.Equal(t, 4, l.limit)
	assert.NotNil(t, l.Contacts())
}
