package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// BucketKey is the attribute carrying a bucket's upper bound.
const BucketKey = "le"

// MetricsSource is satisfied by *goSession.Engine.
type MetricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
	AuditDelivered() uint64
}

type counterBinding struct {
	id         goSession.MetricID
	instrument metric.Int64ObservableCounter
}

// latencyBinding maps one engine histogram onto a bucket gauge keyed by
// BucketKey and a monotonic sample count.
type latencyBinding struct {
	id      goSession.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableCounter
}

// Exporter reads the engine snapshot once per collection and reports it
// through observable instruments.
type Exporter struct {
	source         MetricsSource
	registration   metric.Registration
	counters       []counterBinding
	latencies      []latencyBinding
	auditDropped   metric.Int64ObservableCounter
	auditDelivered metric.Int64ObservableCounter
	bucketAttrs    [internaldefs.BucketCount]metric.ObserveOption
}

// Register creates the instruments on meter and a callback feeding them
// from source. Close unregisters the callback.
func Register(meter metric.Meter, source MetricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	for i, le := range bucketLabels() {
		e.bucketAttrs[i] = metric.WithAttributeSet(attribute.NewSet(attribute.String(BucketKey, le)))
	}

	var observables []metric.Observable
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, counterBinding{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative count per upper bound."))
		if err != nil {
			return nil, fmt.Errorf("histogram %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableCounter(def.Name+"_count",
			metric.WithDescription(def.Help+" Total samples."))
		if err != nil {
			return nil, fmt.Errorf("histogram %s: %w", def.Name, err)
		}
		e.latencies = append(e.latencies, latencyBinding{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription("Audit events dropped because the dispatcher buffer was full."))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDroppedName, err)
	}
	delivered, err := meter.Int64ObservableCounter(internaldefs.AuditDeliveredName,
		metric.WithDescription("Audit events handed to the audit sink."))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDeliveredName, err)
	}
	e.auditDropped, e.auditDelivered = dropped, delivered
	observables = append(observables, dropped, delivered)

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}

	for _, l := range e.latencies {
		raw, ok := snapshot.Histograms[l.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, v := range cumulative {
			o.ObserveInt64(l.buckets, int64(v), e.bucketAttrs[i])
		}
		o.ObserveInt64(l.count, int64(cumulative[len(cumulative)-1]))
	}

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	o.ObserveInt64(e.auditDelivered, int64(e.source.AuditDelivered()))
	return nil
}

// Close unregisters the callback. Instruments stay on the meter but report
// nothing afterwards.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

// bucketLabels renders the bucket bounds in seconds, ending with +Inf.
func bucketLabels() [internaldefs.BucketCount]string {
	var out [internaldefs.BucketCount]string
	for i, b := range internaldefs.UpperBounds() {
		out[i] = strconv.FormatFloat(b, 'g', -1, 64)
	}
	out[len(out)-1] = "+Inf"
	return out
}
