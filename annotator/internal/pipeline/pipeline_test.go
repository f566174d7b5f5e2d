package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/obsidianstack/holecheck/annotator/internal/config"
	"github.com/obsidianstack/holecheck/annotator/internal/dataset"
	"github.com/obsidianstack/holecheck/pkg/compute"
	"github.com/obsidianstack/holecheck/pkg/types"
)

const partsCSV = `uuid,holes
p1,"[{""length"":250,""radius"":10}]"
p2,"[{""length"":850,""radius"":10}]"
p3,"[{""length"":100,""radius"":10}]"
p4,
p5,not json
`

func jobConfig(t *testing.T) config.AnnotatorConfig {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "parts.csv")
	if err := os.WriteFile(in, []byte(partsCSV), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return config.AnnotatorConfig{
		Input:  in,
		Output: filepath.Join(dir, "out", "parts_annotated.csv"),
		Rules:  compute.DefaultConfig(),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := jobConfig(t)
	cfg.Textfile = filepath.Join(filepath.Dir(cfg.Output), "holecheck.prom")

	run, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.ID == "" {
		t.Error("run ID is empty")
	}
	if run.Dataset != "parts" {
		t.Errorf("Dataset: got %q, want parts", run.Dataset)
	}
	if run.FinishedAt.Before(run.StartedAt) {
		t.Errorf("FinishedAt %v before StartedAt %v", run.FinishedAt, run.StartedAt)
	}
	rep := run.Report
	if rep.TotalParts != 5 || rep.PartsWithWarnings != 2 || rep.PartsWithErrors != 1 {
		t.Errorf("report: got %+v", rep)
	}
	if rep.WarningRate != 0.4 || rep.ErrorRate != 0.2 {
		t.Errorf("rates: got %v / %v, want 0.4 / 0.2", rep.WarningRate, rep.ErrorRate)
	}

	out, err := dataset.Read(cfg.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	wantCols := "uuid,holes," + compute.DefaultWarningColumn + "," + compute.DefaultErrorColumn
	if got := strings.Join(out.Columns, ","); got != wantCols {
		t.Errorf("output columns: got %q, want %q", got, wantCols)
	}
	wantFlags := [][2]string{
		{"true", "false"},
		{"true", "true"},
		{"false", "false"},
		{"false", "false"},
		{"false", "false"},
	}
	for i, row := range out.Rows {
		if row["uuid"] != "p"+string(rune('1'+i)) {
			t.Errorf("row %d: uuid %v not preserved", i, row["uuid"])
		}
		got := [2]string{
			row[compute.DefaultWarningColumn].(string),
			row[compute.DefaultErrorColumn].(string),
		}
		if got != wantFlags[i] {
			t.Errorf("row %d flags: got %v, want %v", i, got, wantFlags[i])
		}
	}

	if _, err := os.Stat(cfg.Textfile); err != nil {
		t.Errorf("textfile not written: %v", err)
	}
}

func TestRun_MissingInput(t *testing.T) {
	cfg := jobConfig(t)
	cfg.Input = filepath.Join(t.TempDir(), "nope.csv")

	_, err := Run(context.Background(), cfg)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("got %v, want fs.ErrNotExist", err)
	}
	if _, statErr := os.Stat(cfg.Output); !errors.Is(statErr, fs.ErrNotExist) {
		t.Error("output written despite missing input")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	cfg := jobConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if _, statErr := os.Stat(cfg.Output); !errors.Is(statErr, fs.ErrNotExist) {
		t.Error("output written after cancellation")
	}
}

func TestRun_NoTextfileByDefault(t *testing.T) {
	cfg := jobConfig(t)
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(cfg.Output))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("output dir has %d entries, want only the annotated table", len(entries))
	}
}

func TestRun_JSONLOutput(t *testing.T) {
	cfg := jobConfig(t)
	cfg.Output = strings.TrimSuffix(cfg.Output, ".csv") + ".jsonl"
	cfg.Dataset = "batch-7"

	run, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Dataset != "batch-7" {
		t.Errorf("Dataset: got %q", run.Dataset)
	}
	out, err := dataset.Read(cfg.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if v, ok := out.Rows[1][compute.DefaultErrorColumn].(bool); !ok || !v {
		t.Errorf("row 1 error flag: got %#v, want JSON true", out.Rows[1][compute.DefaultErrorColumn])
	}
}

func TestRun_PublishesReport(t *testing.T) {
	got := make(chan types.Run, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var run types.Run
		if err := json.NewDecoder(r.Body).Decode(&run); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		got <- run
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	cfg := jobConfig(t)
	cfg.Publish = config.PublishConfig{Endpoint: srv.URL, Attempts: 1}

	run, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	select {
	case published := <-got:
		if published.ID != run.ID || published.Report != run.Report {
			t.Errorf("published %+v, want %+v", published, *run)
		}
	default:
		t.Fatal("run was not published")
	}
}

func TestRun_PublishFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := jobConfig(t)
	cfg.Publish = config.PublishConfig{Endpoint: srv.URL, Attempts: 1}

	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(cfg.Output); err != nil {
		t.Errorf("output missing: %v", err)
	}
}
