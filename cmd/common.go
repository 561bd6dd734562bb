package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/metrics"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/tabular"
)

// runPaths are the files one enrichment command works with.
type runPaths struct {
	Input  string
	Output string
	Cache  string
}

func (p runPaths) validate() error {
	if p.Input == "" {
		return eris.New("--input is required")
	}
	if p.Output == "" {
		return eris.New("--output is required")
	}
	if p.Cache == "" {
		return eris.New("--cache is required")
	}
	return nil
}

// loadCompanies reads the input file and maps rows to companies.
func loadCompanies(path string) ([]model.Company, error) {
	tbl, err := tabular.Read(path)
	if err != nil {
		return nil, eris.Wrap(err, "load companies")
	}
	companies := tbl.Companies(cfg.Columns)
	zap.L().Info("loaded companies", zap.String("input", path), zap.Int("companies", len(companies)))
	return companies, nil
}

// startMetrics serves /metrics in the background when metrics.addr is set.
func startMetrics(ctx context.Context) {
	if cfg.Metrics.Addr == "" {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
			zap.L().Warn("metrics server stopped", zap.Error(err))
		}
	}()
}
