package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/enrich-cli/internal/batch"
	"github.com/sells-group/enrich-cli/internal/cache"
	"github.com/sells-group/enrich-cli/internal/contacts"
	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/internal/rolenorm"
	"github.com/sells-group/enrich-cli/pkg/serper"
)

var contactsPaths runPaths

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Find up to four marketing decision-makers per company",
	Long: `Searches for LinkedIn profiles of each company's leadership, walking a
priority list of titles (CEO, Founder, marketing leadership, ...) and writing
Contact{1..4}_Name, _Role and _LinkedIn_URL columns. Rate-limited searches are
retried with exponential backoff. Results are cached by company name.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := contactsPaths.validate(); err != nil {
			return err
		}
		if err := cfg.Validate("contacts"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client := serper.NewClient(cfg.Serper.Key,
			serper.WithBaseURL(cfg.Serper.BaseURL),
			serper.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Serper.TimeoutSecs) * time.Second,
			}),
		)

		_, err := runContacts(ctx, contactsPaths, client)
		return err
	},
}

// runContacts enriches the input with contacts found through client.
func runContacts(ctx context.Context, paths runPaths, client serper.Client) (*batch.Summary, error) {
	roles, err := contacts.LoadRoles(cfg.Search.RolesFile)
	if err != nil {
		return nil, err
	}
	companies, err := loadCompanies(paths.Input)
	if err != nil {
		return nil, err
	}
	startMetrics(ctx)

	query := contacts.NewQueryClient(client, rolenorm.New(), contacts.QueryConfig{
		ResultsPerQuery: cfg.Search.ResultsPerQuery,
		Retry:           resilience.FromSettings(cfg.Search.MaxRetries, cfg.Search.BackoffInitialMs),
	})
	finder := contacts.NewFinder(query, roles, cfg.Search.MaxContacts)

	store := cache.Open[[]model.Contact](paths.Cache)
	task := enrich.ContactsTask{Finder: finder}
	d := enrich.NewDispatcher[[]model.Contact](store, task, enrich.Options{
		Workers: cfg.Batch.Workers,
		Delay:   cfg.Batch.Delay(),
	})
	r := batch.NewRunner[[]model.Contact](d, store, batch.Options[[]model.Contact]{
		Kind:            task.Kind(),
		Output:          paths.Output,
		CheckpointEvery: cfg.Batch.CheckpointEvery,
		Render:          batch.ContactColumns(model.MaxContacts),
	})

	sum, err := r.Run(ctx, companies)
	if err != nil {
		return sum, eris.Wrap(err, "contacts: run")
	}
	return sum, nil
}

func init() {
	contactsCmd.Flags().StringVar(&contactsPaths.Input, "input", "linkedin_contacts_final_size_filtered.csv", "company list (json, csv or xlsx)")
	contactsCmd.Flags().StringVar(&contactsPaths.Output, "output", "linkedin_contacts_final_contacts.csv", "enriched output (csv or json)")
	contactsCmd.Flags().StringVar(&contactsPaths.Cache, "cache", "linkedin_contacts_cache.json", "contacts cache file")
	rootCmd.AddCommand(contactsCmd)
}
