package tabular

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/enrich-cli/internal/model"
)

// ReadXLSX parses the first sheet of a workbook. The first row is the header.
func ReadXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "tabular: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("tabular: %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	t := &Table{}
	for i, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			t.Header = cells
			continue
		}
		if isBlank(cells) {
			continue
		}
		t.Records = append(t.Records, model.NewRecord(t.Header, cells))
	}
	return t, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
