package goSession

import (
	"io"

	"github.com/MrEthical07/goSession/internal/audit"
	"go.uber.org/zap"
)

// AuditEvent is one security-relevant engine outcome.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's dispatcher. A sink that
// also implements io.Closer is closed by [Engine.Close].
type AuditSink = audit.Sink

type (
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	ZapSink        = audit.ZapSink
	KafkaSink      = audit.KafkaSink
	MultiSink      = audit.MultiSink
)

// NewChannelSink returns a sink that forwards events to a buffered channel.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink that writes one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewZapSink returns a sink that logs each event through l.
func NewZapSink(l *zap.Logger) *ZapSink {
	return audit.NewZapSink(l)
}

// NewKafkaSink publishes events to topic on brokers, keyed by principal id.
// Write failures are logged through l and otherwise ignored.
func NewKafkaSink(brokers []string, topic string, l *zap.Logger) *KafkaSink {
	return audit.NewKafkaSink(audit.NewKafkaWriter(brokers, topic), l)
}
