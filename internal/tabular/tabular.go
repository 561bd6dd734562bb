// Package tabular reads company lists from JSON, CSV, and XLSX files and
// writes enriched rows back out as CSV or JSON.
package tabular

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/fileutil"
	"github.com/sells-group/enrich-cli/internal/model"
)

// Columns names the input columns that carry company fields.
type Columns struct {
	Name   string `mapstructure:"name" yaml:"name"`
	URL    string `mapstructure:"url" yaml:"url"`
	Sector string `mapstructure:"sector" yaml:"sector"`
	Size   string `mapstructure:"size" yaml:"size"`
}

// DefaultColumns matches the scraped dataset layout.
func DefaultColumns() Columns {
	return Columns{
		Name:   "companyName",
		URL:    "companyUrl",
		Sector: "sector",
		Size:   "Company_Size",
	}
}

// Table is a parsed input file.
type Table struct {
	Header  []string
	Records []model.Record
}

// Format identifies a file encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// FormatOf picks a format from the file extension. Unknown extensions are
// treated as CSV.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Read parses path according to its extension.
func Read(path string) (*Table, error) {
	switch FormatOf(path) {
	case FormatJSON:
		return ReadJSONFile(path)
	case FormatXLSX:
		return ReadXLSX(path)
	default:
		return ReadCSVFile(path)
	}
}

// Write persists records to path according to its extension, replacing any
// previous file. An empty record set writes nothing.
func Write(path string, records []model.Record) error {
	if FormatOf(path) == FormatXLSX {
		return eris.Errorf("tabular: writing xlsx is not supported: %s", path)
	}
	if len(records) == 0 {
		return nil
	}
	if FormatOf(path) == FormatJSON {
		return WriteJSON(path, records)
	}
	return WriteCSV(path, records)
}

// WriteEmpty replaces path with a table that has header but no rows: a
// header line for CSV, an empty array for JSON.
func WriteEmpty(path string, header []string) error {
	switch FormatOf(path) {
	case FormatXLSX:
		return eris.Errorf("tabular: writing xlsx is not supported: %s", path)
	case FormatJSON:
		return fileutil.WriteFileAtomic(path, []byte("[]\n"), 0o644)
	default:
		return writeCSVHeader(path, header)
	}
}

// Companies maps each record to a Company using cols. Rows without a name
// are kept; their empty name is still a valid cache key.
func (t *Table) Companies(cols Columns) []model.Company {
	out := make([]model.Company, len(t.Records))
	for i, r := range t.Records {
		out[i] = model.Company{
			Name:   r.Get(cols.Name),
			URL:    strings.TrimSpace(r.Get(cols.URL)),
			Sector: r.Get(cols.Sector),
			Source: r,
		}
	}
	return out
}

// Header returns the union of all record columns in first-seen order.
func Header(records []model.Record) []string {
	seen := make(map[string]struct{})
	var header []string
	for _, r := range records {
		for _, col := range r.Columns {
			if _, ok := seen[col]; ok {
				continue
			}
			seen[col] = struct{}{}
			header = append(header, col)
		}
	}
	return header
}
