package otel

import (
	"context"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// LogExporter writes each collection as one zap entry, one field per
// instrument. Bucket gauges add a field per bound, suffixed with it.
type LogExporter struct {
	logger *zap.Logger
}

var _ sdkmetric.Exporter = (*LogExporter)(nil)

func NewLogExporter(l *zap.Logger) *LogExporter {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogExporter{logger: l}
}

func (e *LogExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(k)
}

func (e *LogExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func (e *LogExporter) Export(_ context.Context, rm *metricdata.ResourceMetrics) error {
	fields := make([]zap.Field, 0, 32)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			fields = append(fields, int64Fields(m)...)
		}
	}
	if len(fields) > 0 {
		e.logger.Info("metrics", fields...)
	}
	return nil
}

func (e *LogExporter) ForceFlush(context.Context) error { return nil }

func (e *LogExporter) Shutdown(context.Context) error {
	_ = e.logger.Sync()
	return nil
}

func int64Fields(m metricdata.Metrics) []zap.Field {
	var points []metricdata.DataPoint[int64]
	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		points = data.DataPoints
	case metricdata.Gauge[int64]:
		points = data.DataPoints
	default:
		return nil
	}

	out := make([]zap.Field, 0, len(points))
	for _, dp := range points {
		name := m.Name
		if le, ok := dp.Attributes.Value(BucketKey); ok {
			name += "{le=" + le.Emit() + "}"
		}
		out = append(out, zap.Int64(name, dp.Value))
	}
	return out
}
