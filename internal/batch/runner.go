// Package batch drives a dispatcher over a company list, checkpointing the
// accumulated output and the cache as results arrive.
package batch

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/cache"
	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/metrics"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/tabular"
)

// Source streams completed companies.
type Source[V any] interface {
	Run(ctx context.Context, companies []model.Company) <-chan enrich.Result[V]
}

// WriteFunc persists the full output, replacing any earlier write.
type WriteFunc func(path string, records []model.Record) error

// RenderFunc derives an output row from the source row and its result.
type RenderFunc[V any] func(row model.Record, value V) model.Record

// Options configures a Runner.
type Options[V any] struct {
	Kind            string
	Output          string
	CheckpointEvery int
	Render          RenderFunc[V]
	// Write defaults to tabular.Write, with an empty record set written as a
	// header-only table.
	Write WriteFunc
}

// Summary describes a finished run.
type Summary struct {
	RunID       string
	Kind        string
	Total       int
	Processed   int
	Cached      int
	Fetched     int
	Fallback    int
	Checkpoints int
	Output      string
	Interrupted bool
	Duration    time.Duration
}

// Runner owns the accumulated rows for one run.
type Runner[V any] struct {
	source Source[V]
	store  *cache.Store[V]
	opts   Options[V]

	// header is the output header used when no row has completed yet.
	header []string
}

// NewRunner creates a Runner.
func NewRunner[V any](source Source[V], store *cache.Store[V], opts Options[V]) *Runner[V] {
	if opts.CheckpointEvery <= 0 {
		opts.CheckpointEvery = 5
	}
	return &Runner[V]{source: source, store: store, opts: opts}
}

type row struct {
	index  int
	record model.Record
}

// Run processes companies and always performs a final write of the output
// and the cache, including after ctx is cancelled. Only a failed final write
// is returned as an error; per-company failures are already folded into
// their results.
func (r *Runner[V]) Run(ctx context.Context, companies []model.Company) (*Summary, error) {
	start := time.Now()
	sum := &Summary{
		RunID:  uuid.NewString(),
		Kind:   r.opts.Kind,
		Total:  len(companies),
		Output: r.opts.Output,
	}
	log := zap.L().With(zap.String("run_id", sum.RunID), zap.String("kind", sum.Kind))
	log.Info("batch: starting",
		zap.Int("companies", sum.Total),
		zap.Int("cached", r.store.Len()),
		zap.Int("checkpoint_every", r.opts.CheckpointEvery),
	)

	r.header = r.outputHeader(companies)

	rows := make([]row, 0, len(companies))
	for res := range r.source.Run(ctx, companies) {
		rec := r.opts.Render(res.Company.Source.Clone(), res.Value)
		rows = append(rows, row{index: res.Index, record: rec})
		sum.Processed++

		switch {
		case res.Cached:
			sum.Cached++
		case res.Err != nil:
			sum.Fallback++
		default:
			sum.Fetched++
		}

		log.Info("batch: processed",
			zap.String("company", res.Company.Name),
			zap.Int("done", sum.Processed),
			zap.Int("total", sum.Total),
			zap.Bool("cached", res.Cached),
		)

		if sum.Processed%r.opts.CheckpointEvery == 0 {
			if err := r.flush(rows); err != nil {
				log.Warn("batch: checkpoint failed", zap.Int("done", sum.Processed), zap.Error(err))
			} else {
				sum.Checkpoints++
				metrics.ObserveCheckpoint(sum.Kind)
				log.Info("batch: checkpoint saved", zap.Int("done", sum.Processed))
			}
		}
	}

	sum.Interrupted = ctx.Err() != nil
	err := r.flush(rows)
	sum.Duration = time.Since(start)
	if err != nil {
		log.Error("batch: final save failed", zap.Error(err))
		return sum, err
	}
	metrics.ObserveCheckpoint(sum.Kind)

	log.Info("batch: done",
		zap.Int("processed", sum.Processed),
		zap.Int("total", sum.Total),
		zap.Int("cached", sum.Cached),
		zap.Int("fetched", sum.Fetched),
		zap.Int("fallback", sum.Fallback),
		zap.Bool("interrupted", sum.Interrupted),
		zap.String("output", sum.Output),
		zap.Duration("duration", sum.Duration),
	)
	return sum, nil
}

// flush writes the output in input order, then the cache. The cache is saved
// even when the output write fails.
func (r *Runner[V]) flush(rows []row) error {
	sorted := make([]row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].index < sorted[j].index })

	records := make([]model.Record, len(sorted))
	for i, rw := range sorted {
		records[i] = rw.record
	}

	write := r.opts.Write
	if write == nil {
		write = r.writeTable
	}

	var writeErr error
	if r.opts.Output != "" {
		if err := write(r.opts.Output, records); err != nil {
			writeErr = eris.Wrap(err, "batch: write output")
		}
	}
	if err := r.store.Save(); err != nil {
		if writeErr != nil {
			zap.L().Error("batch: write output", zap.Error(writeErr))
		}
		return eris.Wrap(err, "batch: save cache")
	}
	return writeErr
}

// writeTable replaces the output, so an interrupted run never leaves rows from
// an earlier run behind.
func (r *Runner[V]) writeTable(path string, records []model.Record) error {
	if len(records) == 0 {
		return tabular.WriteEmpty(path, r.header)
	}
	return tabular.Write(path, records)
}

func (r *Runner[V]) outputHeader(companies []model.Company) []string {
	var zero V
	samples := make([]model.Record, len(companies))
	for i, c := range companies {
		samples[i] = r.opts.Render(c.Source.Clone(), zero)
	}
	return tabular.Header(samples)
}
