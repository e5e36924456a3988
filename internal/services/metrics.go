package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the domain metrics.
const MeterName = "apontamento/backend/services"

// Metrics holds the domain counters recorded by the services.
type Metrics struct {
	transitions      metric.Int64Counter
	rejected         metric.Int64Counter
	trackingStarted  metric.Int64Counter
	trackingEnded    metric.Int64Counter
	trackingDuration metric.Float64Histogram
}

// NewMetrics registers the counters on the given meter. A nil meter uses the
// global provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}
	var (
		m   Metrics
		err error
	)
	if m.transitions, err = meter.Int64Counter("orders.transitions",
		metric.WithDescription("Order status transitions applied")); err != nil {
		return nil, err
	}
	if m.rejected, err = meter.Int64Counter("orders.transitions.rejected",
		metric.WithDescription("Order status transitions rejected")); err != nil {
		return nil, err
	}
	if m.trackingStarted, err = meter.Int64Counter("tracking.started",
		metric.WithDescription("Tracking sessions opened")); err != nil {
		return nil, err
	}
	if m.trackingEnded, err = meter.Int64Counter("tracking.ended",
		metric.WithDescription("Tracking sessions closed")); err != nil {
		return nil, err
	}
	if m.trackingDuration, err = meter.Float64Histogram("tracking.duration",
		metric.WithDescription("Length of closed tracking sessions"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) transitioned(ctx context.Context, event string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

func (m *Metrics) transitionRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) trackingOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.trackingStarted.Add(ctx, 1)
}

func (m *Metrics) trackingClosed(ctx context.Context, seconds float64) {
	if m == nil {
		return
	}
	m.trackingEnded.Add(ctx, 1)
	m.trackingDuration.Record(ctx, seconds)
}
