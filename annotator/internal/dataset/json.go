package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/obsidianstack/holecheck/pkg/types"
)

// maxLineBytes bounds a single JSON Lines record. Hole lists for complex
// parts can run to several megabytes.
const maxLineBytes = 64 << 20

type jsonlCodec struct{}

// Decode reads one JSON object per line. Blank lines are skipped.
func (jsonlCodec) Decode(r io.Reader) (*types.Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	cs := newColumnSet(nil)
	t := &types.Table{}
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		row, err := decodeObject(newDecoder(bytes.NewReader(b)), cs)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	t.Columns = cs.order
	return t, nil
}

// Encode writes one JSON object per row with keys in column order.
func (jsonlCodec) Encode(w io.Writer, t *types.Table) error {
	cols := columnsOf(t)
	bw := bufio.NewWriter(w)
	var buf bytes.Buffer
	for i, row := range t.Rows {
		buf.Reset()
		if err := encodeObject(&buf, cols, row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		buf.WriteByte('\n')
		if _, err := bw.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type jsonCodec struct{}

// Decode reads a single JSON array of objects. Empty input yields an
// empty table.
func (jsonCodec) Decode(r io.Reader) (*types.Table, error) {
	dec := newDecoder(r)
	cs := newColumnSet(nil)
	t := &types.Table{}

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("expected array, got %v", tok)
	}
	for dec.More() {
		row, err := decodeObject(dec, cs)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", len(t.Rows), err)
		}
		t.Rows = append(t.Rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	t.Columns = cs.order
	return t, nil
}

// Encode writes the rows as a JSON array, one object per line.
func (jsonCodec) Encode(w io.Writer, t *types.Table) error {
	cols := columnsOf(t)
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
		if err := encodeObject(&buf, cols, row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	buf.WriteString("\n]\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func newDecoder(r io.Reader) *json.Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// decodeObject reads one JSON object from dec, recording its keys in cs in
// the order they appear.
func decodeObject(dec *json.Decoder, cs *columnSet) (types.Row, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	row := types.Row{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		row[key] = v
		cs.add(key)
	}

	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return row, nil
}

// encodeObject appends row as a JSON object with keys in cols order.
// Fields absent from the row are omitted.
func encodeObject(buf *bytes.Buffer, cols []string, row types.Row) error {
	buf.WriteByte('{')
	first := true
	for _, col := range cols {
		v, ok := row[col]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		k, err := json.Marshal(col)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", col, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return nil
}
