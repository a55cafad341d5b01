package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events as JSON, keyed by principal id so one
// principal's events stay ordered within a partition.
type KafkaSink struct {
	w       MessageWriter
	log     *zap.Logger
	timeout time.Duration
}

// NewKafkaWriter returns a hash-balanced writer for topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
	}
}

func NewKafkaSink(w MessageWriter, l *zap.Logger) *KafkaSink {
	if l == nil {
		l = zap.NewNop()
	}
	return &KafkaSink{
		w:       w,
		log:     l.With(zap.String("component", "audit.kafka")),
		timeout: 5 * time.Second,
	}
}

// Emit runs on the dispatcher goroutine, so a slow broker backs up the
// dispatcher buffer rather than the request path.
func (s *KafkaSink) Emit(ctx context.Context, event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		s.log.Error("audit event marshal failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.PrincipalID),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := s.w.WriteMessages(ctx, msg); err != nil {
		s.log.Error("audit event publish failed", zap.String("event_type", event.EventType), zap.Error(err))
	}
}

func (s *KafkaSink) Close() error { return s.w.Close() }
