package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/obsidianstack/holecheck/pkg/types"
)

// ErrUnsupportedFormat is returned for file extensions with no Codec.
var ErrUnsupportedFormat = errors.New("dataset: unsupported format")

// Codec converts between a byte stream and a types.Table.
type Codec interface {
	Decode(r io.Reader) (*types.Table, error)
	Encode(w io.Writer, t *types.Table) error
}

// ForPath returns the Codec matching path's extension.
func ForPath(path string) (Codec, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return csvCodec{}, nil
	case ".jsonl", ".ndjson":
		return jsonlCodec{}, nil
	case ".json":
		return jsonCodec{}, nil
	default:
		return nil, fmt.Errorf("%w %q (path %q)", ErrUnsupportedFormat, ext, path)
	}
}

// Read loads the table at path. A missing file is reported with an error
// wrapping fs.ErrNotExist.
func Read(path string) (*types.Table, error) {
	codec, err := ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open: %w", err)
	}
	defer f.Close()

	t, err := codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: decode %q: %w", path, err)
	}
	return t, nil
}

// Write stores t at path, creating parent directories as needed. The file
// is written to a temporary name in the same directory and renamed into
// place, so readers never observe a partial table.
func Write(path string, t *types.Table) error {
	codec, err := ForPath(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("dataset: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("dataset: create temp: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := codec.Encode(tmp, t); err != nil {
		tmp.Close()
		return fmt.Errorf("dataset: encode %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("dataset: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("dataset: rename: %w", err)
	}
	return nil
}

// columnSet tracks first-appearance column order.
type columnSet struct {
	order []string
	seen  map[string]struct{}
}

func newColumnSet(initial []string) *columnSet {
	cs := &columnSet{seen: make(map[string]struct{}, len(initial))}
	for _, c := range initial {
		cs.add(c)
	}
	return cs
}

func (cs *columnSet) add(name string) {
	if _, ok := cs.seen[name]; ok {
		return
	}
	cs.seen[name] = struct{}{}
	cs.order = append(cs.order, name)
}

// columnsOf returns t.Columns followed by any row keys not listed there,
// the extras sorted per row for a stable order.
func columnsOf(t *types.Table) []string {
	cs := newColumnSet(t.Columns)
	for _, row := range t.Rows {
		var extra []string
		for k := range row {
			if _, ok := cs.seen[k]; !ok {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			cs.add(k)
		}
	}
	return cs.order
}
