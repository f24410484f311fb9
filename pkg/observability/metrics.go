// Package observability provides OpenTelemetry metrics for the
// authorization engine: decision counters split by reason code and an
// evaluation-duration histogram.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "blossom.core.authz"

// Metrics holds the engine's instruments.
type Metrics struct {
	decisions metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewMetrics creates instruments on the given meter. Pass a noop meter (or
// use Setup) depending on deployment.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	decisions, err := meter.Int64Counter("authz.decisions",
		metric.WithDescription("Authorization verdicts by outcome and reason code"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: decisions counter failed: %w", err)
	}
	duration, err := meter.Float64Histogram("authz.evaluation.duration",
		metric.WithDescription("Plan evaluation duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: duration histogram failed: %w", err)
	}
	return &Metrics{decisions: decisions, duration: duration}, nil
}

// Setup installs a default SDK meter provider globally and returns Metrics
// bound to it. Exporter wiring is left to the hosting process.
func Setup() (*Metrics, error) {
	provider := sdkmetric.NewMeterProvider()
	otel.SetMeterProvider(provider)
	return NewMetrics(otel.Meter(meterName))
}

// RecordDecision records one verdict.
func (m *Metrics) RecordDecision(ctx context.Context, allowed bool, code string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.Bool("allowed", allowed),
		attribute.String("code", code),
	)
	m.decisions.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
}
