package tabular

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/fileutil"
	"github.com/sells-group/enrich-cli/internal/model"
)

// ReadJSONFile opens and parses a JSON file.
func ReadJSONFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ReadJSON(f)
}

// ReadJSON parses an array of flat objects. Key order is preserved. String
// values are taken as-is, null becomes "", and any other value is kept as
// its compact JSON text.
func ReadJSON(r io.Reader) (*Table, error) {
	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, eris.Wrap(err, "tabular: decode json array")
	}

	t := &Table{Records: make([]model.Record, 0, len(items))}
	for i, item := range items {
		rec, err := decodeObject(item)
		if err != nil {
			return nil, eris.Wrapf(err, "tabular: item %d", i)
		}
		t.Records = append(t.Records, rec)
	}
	t.Header = Header(t.Records)
	return t, nil
}

func decodeObject(raw json.RawMessage) (model.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return model.Record{}, eris.Wrap(err, "tabular: read object start")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return model.Record{}, eris.New("tabular: expected a json object")
	}

	var rec model.Record
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return model.Record{}, eris.Wrap(err, "tabular: read key")
		}
		key, _ := keyTok.(string)

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return model.Record{}, eris.Wrapf(err, "tabular: read value for %q", key)
		}
		rec.Set(key, scalar(val))
	}

	compact := new(bytes.Buffer)
	if err := json.Compact(compact, raw); err != nil {
		return model.Record{}, eris.Wrap(err, "tabular: compact object")
	}
	rec.Raw = compact.Bytes()
	return rec, nil
}

func scalar(val json.RawMessage) string {
	trimmed := bytes.TrimSpace(val)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// WriteJSON writes records as an indented array of objects. Unmodified rows
// read from JSON are written verbatim; other rows become string-valued
// objects in column order.
func WriteJSON(path string, records []model.Record) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		if r.Raw != nil {
			buf.Write(r.Raw)
			continue
		}
		if err := writeObject(&buf, r); err != nil {
			return err
		}
	}
	buf.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return eris.Wrap(err, "tabular: indent json")
	}
	out.WriteByte('\n')

	return fileutil.WriteFileAtomic(path, out.Bytes(), 0o644)
}

func writeObject(buf *bytes.Buffer, r model.Record) error {
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(col)
		if err != nil {
			return eris.Wrapf(err, "tabular: marshal key %q", col)
		}
		v, err := json.Marshal(r.Get(col))
		if err != nil {
			return eris.Wrapf(err, "tabular: marshal value for %q", col)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return nil
}
