package tabular

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/enrich-cli/internal/fileutil"
	"github.com/sells-group/enrich-cli/internal/model"
)

// ReadCSVFile opens and parses a CSV file.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(f)
}

// ReadCSV parses a CSV stream whose first row is the header. A UTF-8 or
// UTF-16 byte order mark is honored and stripped, so spreadsheet exports
// keep their first column name intact.
func ReadCSV(r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(transform.Nop))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "tabular: read csv header")
	}

	t := &Table{Header: header}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "tabular: read csv row")
		}
		t.Records = append(t.Records, model.NewRecord(header, row))
	}
	return t, nil
}

// WriteCSV writes records with a header that is the union of their columns.
func WriteCSV(path string, records []model.Record) error {
	header := Header(records)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "tabular: write csv header")
	}
	for _, r := range records {
		row := make([]string, len(header))
		for i, col := range header {
			row[i] = r.Get(col)
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "tabular: write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "tabular: flush csv")
	}

	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

func writeCSVHeader(path string, header []string) error {
	var buf bytes.Buffer
	if len(header) > 0 {
		w := csv.NewWriter(&buf)
		if err := w.Write(header); err != nil {
			return eris.Wrap(err, "tabular: write csv header")
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return eris.Wrap(err, "tabular: flush csv")
		}
	}
	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}
