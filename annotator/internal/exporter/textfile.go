package exporter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/obsidianstack/holecheck/pkg/types"
)

// Exported gauge names.
const (
	MetricPartsTotal        = "holecheck_parts_total"
	MetricPartsWithWarnings = "holecheck_parts_with_warnings"
	MetricPartsWithErrors   = "holecheck_parts_with_errors"
	MetricWarningRate       = "holecheck_warning_rate"
	MetricErrorRate         = "holecheck_error_rate"
	MetricCriticalParts     = "holecheck_critical_parts"
)

const labelDataset = "dataset"

// Families converts r into one gauge family per report field, in a fixed
// order.
func Families(dataset string, r types.Report) []*dto.MetricFamily {
	return []*dto.MetricFamily{
		gauge(MetricPartsTotal, "Number of parts in the annotated table.", dataset, float64(r.TotalParts)),
		gauge(MetricPartsWithWarnings, "Parts flagged with an unreachable-hole warning.", dataset, float64(r.PartsWithWarnings)),
		gauge(MetricPartsWithErrors, "Parts flagged with an unreachable-hole error.", dataset, float64(r.PartsWithErrors)),
		gauge(MetricWarningRate, "Fraction of parts with a warning.", dataset, r.WarningRate),
		gauge(MetricErrorRate, "Fraction of parts with an error.", dataset, r.ErrorRate),
		gauge(MetricCriticalParts, "Parts needing immediate review.", dataset, float64(r.CriticalParts)),
	}
}

// WriteTextfile renders Families(dataset, r) to path. The file is written
// under a temporary name and renamed, so the collector never scrapes a
// partial file.
func WriteTextfile(path, dataset string, r types.Report) error {
	var buf bytes.Buffer
	for _, mf := range Families(dataset, r) {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("exporter: encode %s: %w", mf.GetName(), err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("exporter: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("exporter: create temp: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("exporter: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("exporter: close temp: %w", err)
	}
	// CreateTemp uses 0600; the collector usually runs as another user.
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("exporter: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("exporter: rename: %w", err)
	}
	return nil
}

func gauge(name, help, dataset string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{
			Label: []*dto.LabelPair{{
				Name:  proto.String(labelDataset),
				Value: proto.String(dataset),
			}},
			Gauge: &dto.Gauge{Value: proto.Float64(v)},
		}},
	}
}
