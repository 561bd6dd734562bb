package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/enrich-cli/internal/batch"
	"github.com/sells-group/enrich-cli/internal/cache"
	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/pkg/linkedin"
)

var sizePaths runPaths

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Look up each company's employee-count bracket from its LinkedIn page",
	Long: `Opens each company's LinkedIn page in headless Chrome with the member
session cookie and records the employee-count text in a Company_Size column.
Results are cached by company name; rerunning only visits uncached companies.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := sizePaths.validate(); err != nil {
			return err
		}
		if err := cfg.Validate("size"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		browser, err := linkedin.NewBrowser(linkedin.Config{
			SessionCookie: cfg.LinkedIn.SessionCookie,
			Selector:      cfg.LinkedIn.SizeSelector,
			NavTimeout:    time.Duration(cfg.LinkedIn.NavTimeoutSecs) * time.Second,
			MaxParallel:   cfg.Batch.Workers,
		})
		if err != nil {
			return eris.Wrap(err, "size: start browser")
		}
		defer browser.Close()

		_, err = runSize(ctx, sizePaths, browser)
		return err
	},
}

// runSize enriches the input with company sizes read through fetcher.
func runSize(ctx context.Context, paths runPaths, fetcher linkedin.SizeFetcher) (*batch.Summary, error) {
	companies, err := loadCompanies(paths.Input)
	if err != nil {
		return nil, err
	}
	startMetrics(ctx)

	store := cache.Open[string](paths.Cache)
	task := enrich.SizeTask{Fetcher: fetcher}
	d := enrich.NewDispatcher[string](store, task, enrich.Options{
		Workers: cfg.Batch.Workers,
		Delay:   cfg.Batch.Delay(),
	})
	r := batch.NewRunner[string](d, store, batch.Options[string]{
		Kind:            task.Kind(),
		Output:          paths.Output,
		CheckpointEvery: cfg.Batch.CheckpointEvery,
		Render:          batch.SizeColumn(cfg.Columns.Size),
	})

	sum, err := r.Run(ctx, companies)
	if err != nil {
		return sum, eris.Wrap(err, "size: run")
	}
	return sum, nil
}

func init() {
	sizeCmd.Flags().StringVar(&sizePaths.Input, "input", "dataset_linkedin-jobs-scraper_filtered.json", "company list (json, csv or xlsx)")
	sizeCmd.Flags().StringVar(&sizePaths.Output, "output", "linkedin_contacts_final_size.csv", "enriched output (csv or json)")
	sizeCmd.Flags().StringVar(&sizePaths.Cache, "cache", "company_size_cache.json", "size cache file")
	rootCmd.AddCommand(sizeCmd)
}
