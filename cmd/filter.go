package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/filter"
	"github.com/sells-group/enrich-cli/internal/sizerange"
	"github.com/sells-group/enrich-cli/internal/tabular"
)

var (
	filterSizeInput    string
	filterSizeOutput   string
	filterSectorInput  string
	filterSectorOutput string
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter company rows by size window or sector",
}

var filterSizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Keep rows whose Company_Size overlaps the configured employee window",
	Long: `Parses the size column ("11-50 employees", "1.5K-2K", "501") and keeps
rows whose range overlaps [filter.min_employees, filter.max_employees].
Open-ended sizes such as "10,001+ employees" and unparseable values are dropped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("filter"); err != nil {
			return err
		}
		w := sizerange.Window{Min: cfg.Filter.MinEmployees, Max: cfg.Filter.MaxEmployees}
		_, err := runFilter(filterSizeInput, filterSizeOutput, filter.BySize(cfg.Columns.Size, w))
		return err
	},
}

var filterSectorCmd = &cobra.Command{
	Use:   "sector",
	Short: "Keep rows whose sector is in filter.sectors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("filter"); err != nil {
			return err
		}
		_, err := runFilter(filterSectorInput, filterSectorOutput, filter.BySector(cfg.Columns.Sector, cfg.Filter.Sectors))
		return err
	},
}

// runFilter applies keep to every input row. The output is only written when
// at least one row survives. It returns the number of rows kept.
func runFilter(input, output string, keep filter.Predicate) (int, error) {
	if input == "" || output == "" {
		return 0, eris.New("--input and --output are required")
	}

	tbl, err := tabular.Read(input)
	if err != nil {
		return 0, eris.Wrap(err, "filter: read input")
	}

	kept := filter.Apply(tbl.Records, keep)
	if len(kept) > 0 {
		if err := tabular.Write(output, kept); err != nil {
			return 0, eris.Wrap(err, "filter: write output")
		}
	}

	zap.L().Info("filter complete",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("rows", len(tbl.Records)),
		zap.Int("kept", len(kept)),
	)
	return len(kept), nil
}

func init() {
	filterSizeCmd.Flags().StringVar(&filterSizeInput, "input", "linkedin_contacts_final_size.csv", "size-enriched rows (csv, json or xlsx)")
	filterSizeCmd.Flags().StringVar(&filterSizeOutput, "output", "linkedin_contacts_final_size_filtered.csv", "filtered output (csv or json)")
	filterSectorCmd.Flags().StringVar(&filterSectorInput, "input", "dataset_linkedin-jobs-scraper.json", "scraped company list (json, csv or xlsx)")
	filterSectorCmd.Flags().StringVar(&filterSectorOutput, "output", "dataset_linkedin-jobs-scraper_filtered.json", "filtered output (json or csv)")

	filterCmd.AddCommand(filterSizeCmd, filterSectorCmd)
	rootCmd.AddCommand(filterCmd)
}
