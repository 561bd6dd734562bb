// Package enrich runs one enrichment task per company across a fixed pool of
// workers, consulting the cache before any external call.
package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/sells-group/enrich-cli/internal/cache"
	"github.com/sells-group/enrich-cli/internal/metrics"
	"github.com/sells-group/enrich-cli/internal/model"
)

// Task computes a value for one company on a cache miss.
type Task[V any] interface {
	// Kind names the task in logs and metrics.
	Kind() string
	// Fetch looks the value up externally. A non-nil error is replaced by
	// Fallback unless ctx has been cancelled.
	Fetch(ctx context.Context, c model.Company) (V, error)
	// Fallback is the terminal "not available" value.
	Fallback() V
}

// Result is one completed company.
type Result[V any] struct {
	// Index is the company's position in the input slice.
	Index   int
	Company model.Company
	Value   V
	Cached  bool
	// Err is the fetch error that was replaced by the fallback, if any.
	Err error
}

// Options tunes a Dispatcher.
type Options struct {
	// Workers is the pool size. Default: 3.
	Workers int
	// Delay is the minimum spacing between external fetches across all
	// workers. Cache hits are never delayed. Zero disables pacing.
	Delay time.Duration
}

// Dispatcher fans companies out to workers.
type Dispatcher[V any] struct {
	store   *cache.Store[V]
	task    Task[V]
	workers int
	limiter *rate.Limiter

	// inflight collapses concurrent misses on one cache key into one fetch.
	inflight singleflight.Group
}

// NewDispatcher creates a Dispatcher that reads and writes store.
func NewDispatcher[V any](store *cache.Store[V], task Task[V], opts Options) *Dispatcher[V] {
	if opts.Workers <= 0 {
		opts.Workers = 3
	}
	var limiter *rate.Limiter
	if opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}
	return &Dispatcher[V]{
		store:   store,
		task:    task,
		workers: opts.Workers,
		limiter: limiter,
	}
}

// Run streams one Result per company in completion order. The channel is
// closed once every company has completed or ctx is cancelled; companies
// interrupted by cancellation are neither cached nor reported. Every value
// written to the cache is also reported, so callers must drain the channel.
func (d *Dispatcher[V]) Run(ctx context.Context, companies []model.Company) <-chan Result[V] {
	jobs := make(chan job)
	results := make(chan Result[V], d.workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i, c := range companies {
			select {
			case jobs <- job{index: i, company: c}:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			for j := range jobs {
				res, ok := d.process(gctx, j.company)
				if !ok {
					continue
				}
				res.Index = j.index
				results <- res
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	return results
}

type job struct {
	index   int
	company model.Company
}

// outcome is what one fetch produced, shared by every caller waiting on the
// same key.
type outcome[V any] struct {
	value  V
	err    error
	cached bool
	ok     bool
}

func (d *Dispatcher[V]) process(ctx context.Context, c model.Company) (Result[V], bool) {
	kind := d.task.Kind()
	log := zap.L().With(zap.String("kind", kind), zap.String("company", c.Name))

	if v, ok := d.store.Get(c.Key()); ok {
		metrics.ObserveEntity(kind, metrics.OutcomeCached)
		log.Debug("enrich: cache hit")
		return Result[V]{Company: c, Value: v, Cached: true}, true
	}

	leader := false
	shared, _, _ := d.inflight.Do(c.Key(), func() (any, error) {
		leader = true
		return d.fetch(ctx, c, log), nil
	})
	out := shared.(outcome[V])
	if !out.ok {
		return Result[V]{}, false
	}
	if !leader {
		metrics.ObserveEntity(kind, metrics.OutcomeCached)
		log.Debug("enrich: joined in-flight fetch")
		return Result[V]{Company: c, Value: out.value, Cached: true}, true
	}
	return Result[V]{Company: c, Value: out.value, Cached: out.cached, Err: out.err}, true
}

// fetch runs the task for a cache miss and records the value. It reports
// ok=false when ctx was cancelled; nothing is cached in that case.
func (d *Dispatcher[V]) fetch(ctx context.Context, c model.Company, log *zap.Logger) outcome[V] {
	kind := d.task.Kind()

	// An earlier fetch for the same key may have finished since the first lookup.
	if v, ok := d.store.Get(c.Key()); ok {
		metrics.ObserveEntity(kind, metrics.OutcomeCached)
		return outcome[V]{value: v, cached: true, ok: true}
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			metrics.ObserveEntity(kind, metrics.OutcomeCancelled)
			return outcome[V]{}
		}
	}
	if ctx.Err() != nil {
		metrics.ObserveEntity(kind, metrics.OutcomeCancelled)
		return outcome[V]{}
	}

	start := time.Now()
	v, err := d.task.Fetch(ctx, c)
	metrics.ObserveFetch(kind, time.Since(start))

	if ctx.Err() != nil {
		metrics.ObserveEntity(kind, metrics.OutcomeCancelled)
		log.Debug("enrich: interrupted, not caching")
		return outcome[V]{}
	}

	out := outcome[V]{value: v, ok: true}
	if err != nil {
		log.Warn("enrich: fetch failed, recording fallback", zap.Error(err))
		out.value = d.task.Fallback()
		out.err = err
		metrics.ObserveEntity(kind, metrics.OutcomeFallback)
	} else {
		metrics.ObserveEntity(kind, metrics.OutcomeFetched)
	}

	d.store.Put(c.Key(), out.value)
	return out
}
