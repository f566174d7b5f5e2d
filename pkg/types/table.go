package types

import "encoding/json"

// Row is one part record: a set of named fields. Values are whatever the
// storage layer decoded (string, bool, json.Number, nil, nested JSON values).
type Row map[string]any

// Clone returns a shallow copy of r. Nested values are shared.
func (r Row) Clone() Row {
	out := make(Row, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Text returns the field as text for parsing. Strings and byte slices are
// returned as-is. A missing or nil field reports ok=false. Any other value
// is re-encoded as JSON, which covers structured values decoded from JSON
// Lines input.
func (r Row) Text(name string) (string, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

// Bool reports whether the field holds the boolean true.
func (r Row) Bool(name string) bool {
	b, _ := r[name].(bool)
	return b
}

// Table is an ordered collection of rows plus the ordered column list used
// when the table is written back out.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is in the column list.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends name to the column list unless it is already present.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}
