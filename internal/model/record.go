package model

// Record is a single tabular row with its column order preserved.
type Record struct {
	Columns []string
	Values  map[string]string

	// Raw holds the original JSON object when the row was read from JSON and
	// has not been modified since. Writers emit it verbatim so non-string
	// values survive a round trip.
	Raw []byte
}

// NewRecord builds a Record from parallel header and cell slices. Cells past
// the end of the header are dropped; missing cells become empty strings.
func NewRecord(header, cells []string) Record {
	r := Record{
		Columns: make([]string, 0, len(header)),
		Values:  make(map[string]string, len(header)),
	}
	for i, col := range header {
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		r.Set(col, v)
	}
	return r
}

// Get returns the value for col, or "" when the column is absent.
func (r Record) Get(col string) string {
	return r.Values[col]
}

// Set assigns a value, appending col to the column order if it is new.
func (r *Record) Set(col, value string) {
	if r.Values == nil {
		r.Values = make(map[string]string)
	}
	old, ok := r.Values[col]
	if !ok {
		r.Columns = append(r.Columns, col)
	}
	if !ok || old != value {
		r.Raw = nil
	}
	r.Values[col] = value
}

// Clone returns a deep copy so callers can add derived columns without
// mutating the input row.
func (r Record) Clone() Record {
	out := Record{
		Columns: append([]string(nil), r.Columns...),
		Values:  make(map[string]string, len(r.Values)),
		Raw:     r.Raw,
	}
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return out
}

// Cells returns the values in column order.
func (r Record) Cells() []string {
	cells := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		cells[i] = r.Values[col]
	}
	return cells
}
