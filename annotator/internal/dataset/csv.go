package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/obsidianstack/holecheck/pkg/types"
)

const utf8BOM = "\ufeff"

type csvCodec struct{}

// Decode reads a header row followed by data rows. Every cell becomes a
// string field; an input with no header yields an empty table.
func (csvCodec) Decode(r io.Reader) (*types.Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &types.Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	t := &types.Table{Columns: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		row := make(types.Row, len(header))
		for i, col := range header {
			row[col] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Encode writes the header then one record per row. Missing fields and nil
// values are written as empty cells.
func (csvCodec) Encode(w io.Writer, t *types.Table) error {
	cols := columnsOf(t)

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}

	rec := make([]string, len(cols))
	for i, row := range t.Rows {
		for j, col := range cols {
			cell, err := formatCell(row[col])
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i, col, err)
			}
			rec[j] = cell
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatCell renders a field value as CSV text. Structured values are
// written as JSON.
func formatCell(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
