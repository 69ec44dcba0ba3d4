// Package export writes scored batches to the configured sinks: JSON report
// files, an Elasticsearch index, and a Kafka topic.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	stderrors "retention-engine/internal/common/errors"
	"retention-engine/internal/common/logger"
	"retention-engine/internal/models"
)

// JSONReport is the on-disk batch artifact: the run summary followed by every
// scored customer.
type JSONReport struct {
	GeneratedAt time.Time               `json:"generatedAt"`
	Summary     models.BatchSummary     `json:"summary"`
	Customers   []models.ScoredCustomer `json:"customers"`
}

// JSONExporter writes timestamped report files into a directory.
type JSONExporter struct {
	dir string
	log logger.Logger
}

// NewJSONExporter creates a report writer rooted at dir.
func NewJSONExporter(dir string, log logger.Logger) *JSONExporter {
	return &JSONExporter{dir: dir, log: log}
}

// Name identifies the sink in batch logs.
func (e *JSONExporter) Name() string { return "json:" + e.dir }

// TimestampedFilename builds a collision-free report name like
// risk_report_20260826_153000.json.
func TimestampedFilename(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.json", prefix, at.Format("20060102_150405"))
}

// WriteReport persists the full batch report and returns the file path.
func (e *JSONExporter) WriteReport(summary models.BatchSummary, customers []models.ScoredCustomer) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", stderrors.NewExportFailedError(e.Name(), err)
	}

	report := JSONReport{
		GeneratedAt: time.Now().UTC(),
		Summary:     summary,
		Customers:   customers,
	}

	path := filepath.Join(e.dir, TimestampedFilename("risk_report", report.GeneratedAt))
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", stderrors.NewExportFailedError(e.Name(), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", stderrors.NewExportFailedError(e.Name(), err)
	}

	e.log.Info("Wrote batch report", map[string]interface{}{
		"path":      path,
		"customers": len(customers),
	})
	return path, nil
}

// WriteScored satisfies the pipeline sink contract by writing a report that
// carries only the customers scored so far.
func (e *JSONExporter) WriteScored(ctx context.Context, customers []models.ScoredCustomer) error {
	_, err := e.WriteReport(models.BatchSummary{Scored: len(customers), Total: len(customers)}, customers)
	return err
}

// ExportJSON writes any value as pretty-printed JSON, used by the calibration
// report tool.
func ExportJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return stderrors.NewExportFailedError("json:"+path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stderrors.NewExportFailedError("json:"+path, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return stderrors.NewExportFailedError("json:"+path, err)
	}
	return nil
}
