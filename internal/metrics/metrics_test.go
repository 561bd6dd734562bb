package metrics

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Idempotent(t *testing.T) {
	Init()
	Init()

	require.NotNil(t, entitiesTotal)
	require.NotNil(t, searchCallsTotal)
	require.NotNil(t, rateLimitRetries)
	require.NotNil(t, checkpointsTotal)
	require.NotNil(t, fetchDuration)
}

func TestObserveEntity(t *testing.T) {
	before := testutil.ToFloat64(entitiesCounter("test_kind", OutcomeCached))
	ObserveEntity("test_kind", OutcomeCached)
	ObserveEntity("test_kind", OutcomeCached)
	assert.Equal(t, before+2, testutil.ToFloat64(entitiesCounter("test_kind", OutcomeCached)))
}

func TestObserveSearchAndRetries(t *testing.T) {
	Init()
	beforeRetries := testutil.ToFloat64(rateLimitRetries)
	beforeLimited := testutil.ToFloat64(searchCallsTotal.WithLabelValues("rate_limited"))

	ObserveSearch("rate_limited")
	ObserveRateLimitRetry()

	assert.Equal(t, beforeLimited+1, testutil.ToFloat64(searchCallsTotal.WithLabelValues("rate_limited")))
	assert.Equal(t, beforeRetries+1, testutil.ToFloat64(rateLimitRetries))
}

func TestObserveCheckpointAndFetch(t *testing.T) {
	ObserveCheckpoint("test_cp")
	ObserveFetch("test_cp", 1500*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(checkpointsTotal.WithLabelValues("test_cp")), 1.0)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	ObserveEntity("handler_kind", OutcomeFetched)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "enrich_entities_total")
}

func TestServe_EmptyAddrIsNoop(t *testing.T) {
	require.NoError(t, Serve(context.Background(), ""))
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func entitiesCounter(kind, outcome string) prometheus.Counter {
	Init()
	return entitiesTotal.WithLabelValues(kind, outcome)
}
