package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attempt results and report outcomes used as metric labels
const (
	ResultSuccess = "success"
	ResultFailure = "failure"

	OutcomeRows    = "rows"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// ExtractionMetrics holds the batch instruments. A nil *ExtractionMetrics is
// valid and records nothing.
type ExtractionMetrics struct {
	Attempts      metric.Int64Counter
	Reports       metric.Int64Counter
	Rows          metric.Int64Counter
	Duration      metric.Float64Histogram
	ActiveWorkers metric.Int64UpDownCounter
}

// NewExtractionMetrics creates the extraction instruments on meter
func NewExtractionMetrics(meter metric.Meter) (*ExtractionMetrics, error) {
	attempts, err := meter.Int64Counter(
		"consolidator_extraction_attempts",
		metric.WithDescription("Extraction attempts by result"),
	)
	if err != nil {
		return nil, err
	}

	reports, err := meter.Int64Counter(
		"consolidator_reports",
		metric.WithDescription("Processed report files by outcome"),
	)
	if err != nil {
		return nil, err
	}

	rows, err := meter.Int64Counter(
		"consolidator_rows",
		metric.WithDescription("Records added to the batch table"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"consolidator_extraction_duration",
		metric.WithDescription("Time spent extracting one report, retries included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		"consolidator_active_workers",
		metric.WithDescription("Reports currently being extracted"),
	)
	if err != nil {
		return nil, err
	}

	return &ExtractionMetrics{
		Attempts:      attempts,
		Reports:       reports,
		Rows:          rows,
		Duration:      duration,
		ActiveWorkers: active,
	}, nil
}

// RecordAttempt counts one extraction attempt
func (m *ExtractionMetrics) RecordAttempt(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.Attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordReport counts a finished report and its duration
func (m *ExtractionMetrics) RecordReport(ctx context.Context, outcome string, rows int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.Reports.Add(ctx, 1, attrs)
	m.Rows.Add(ctx, int64(rows))
	m.Duration.Record(ctx, d.Seconds(), attrs)
}

// WorkerStarted and WorkerFinished track in-flight extractions
func (m *ExtractionMetrics) WorkerStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveWorkers.Add(ctx, 1)
}

func (m *ExtractionMetrics) WorkerFinished(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveWorkers.Add(ctx, -1)
}
