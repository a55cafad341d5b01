package prometheus

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSource is satisfied by *goSession.Engine.
type MetricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
	AuditDelivered() uint64
}

// Collector reads an engine snapshot on every scrape and reports it as
// const metrics.
type Collector struct {
	source         MetricsSource
	counters       []counterDesc
	histograms     []histogramDesc
	auditDropped   *prometheus.Desc
	auditDelivered *prometheus.Desc
	bounds         []float64
}

type counterDesc struct {
	id   goSession.MetricID
	desc *prometheus.Desc
}

type histogramDesc struct {
	id   goSession.MetricID
	desc *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Collector over source.
func NewCollector(source MetricsSource) *Collector {
	c := &Collector{
		source:         source,
		counters:       make([]counterDesc, 0, len(internaldefs.CounterDefs)),
		histograms:     make([]histogramDesc, 0, len(internaldefs.HistogramDefs)),
		auditDropped:   prometheus.NewDesc(internaldefs.AuditDroppedName, "Audit events dropped because the dispatcher buffer was full.", nil, nil),
		auditDelivered: prometheus.NewDesc(internaldefs.AuditDeliveredName, "Audit events handed to the audit sink.", nil, nil),
		bounds:         internaldefs.UpperBounds(),
	}
	for _, def := range internaldefs.CounterDefs {
		c.counters = append(c.counters, counterDesc{id: def.ID, desc: prometheus.NewDesc(def.Name, def.Help, nil, nil)})
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histograms = append(c.histograms, histogramDesc{id: def.ID, desc: prometheus.NewDesc(def.Name, def.Help, nil, nil)})
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.counters {
		ch <- d.desc
	}
	for _, h := range c.histograms {
		ch <- h.desc
	}
	ch <- c.auditDropped
	ch <- c.auditDelivered
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		return
	}
	snapshot := c.source.MetricsSnapshot()

	for _, d := range c.counters {
		ch <- prometheus.MustNewConstMetric(d.desc, prometheus.CounterValue, float64(snapshot.Counters[d.id]))
	}

	for _, h := range c.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(c.bounds))
		for i, le := range c.bounds {
			buckets[le] = cumulative[i]
		}
		// The engine keeps no sum, so _sum is always 0.
		ch <- prometheus.MustNewConstHistogram(h.desc, cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(c.auditDropped, prometheus.CounterValue, float64(c.source.AuditDropped()))
	ch <- prometheus.MustNewConstMetric(c.auditDelivered, prometheus.CounterValue, float64(c.source.AuditDelivered()))
}

// Handler registers a Collector for engine on a private registry and serves it.
func Handler(engine *goSession.Engine) http.Handler {
	return HandlerFor(engine)
}

// HandlerFor is Handler for any MetricsSource.
func HandlerFor(source MetricsSource) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(source))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
