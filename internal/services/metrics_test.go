package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"apontamento/backend/pkg/models"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumByAttr(t *testing.T, data metricdata.Aggregation, key string) map[string]int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	out := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(key))
		out[v.AsString()] += dp.Value
	}
	return out
}

func TestMetrics_RecordedThroughLifecycle(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	e := newEnvWithMeter(t, provider.Meter(MeterName))
	ctx := context.Background()
	o := e.newOrder(t)
	st := e.newStage(t, o.ID, "Corte")
	reason, err := e.reasons.Create(ctx, "Quebra")
	require.NoError(t, err)

	e.move(t, o.ID, models.StatusEmAndamento, nil)
	entry, err := e.tracking.Start(ctx, models.StartTracking{OrderID: o.ID, StageID: st.ID, EmployeeID: e.worker.ID}, 0)
	require.NoError(t, err)
	e.clock.advance(90 * time.Second)
	_, err = e.tracking.End(ctx, models.EndTracking{TrackingID: entry.ID})
	require.NoError(t, err)

	e.move(t, o.ID, models.StatusInterrompido, &reason.ID)
	e.move(t, o.ID, models.StatusEmAndamento, nil)
	e.move(t, o.ID, models.StatusFinalizado, nil)

	_, err = e.orders.Transition(ctx, o.ID, models.StatusChange{Status: models.StatusEmAndamento}, e.worker.ID)
	require.Error(t, err)

	got := collect(t, reader)

	transitions := sumByAttr(t, got["orders.transitions"], "event")
	assert.Equal(t, map[string]int64{"start": 1, "interrupt": 1, "resume": 1, "finish": 1}, transitions)

	assert.Equal(t, map[string]int64{"invalid": 1}, sumByAttr(t, got["orders.transitions.rejected"], "reason"))

	assert.Equal(t, map[string]int64{"": 1}, sumByAttr(t, got["tracking.started"], "none"))
	assert.Equal(t, map[string]int64{"": 1}, sumByAttr(t, got["tracking.ended"], "none"))

	hist, ok := got["tracking.duration"].(metricdata.Histogram[float64])
	require.True(t, ok, "expected a float64 histogram, got %T", got["tracking.duration"])
	require.Len(t, hist.DataPoints, 1)
	assert.EqualValues(t, 1, hist.DataPoints[0].Count)
	assert.InDelta(t, 90.0, hist.DataPoints[0].Sum, 0.001)
}
