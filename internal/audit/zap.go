package audit

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapSink logs each event as one structured line. Failed events log at
// Warn, successful ones at Info.
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(l *zap.Logger) *ZapSink {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapSink{log: l.With(zap.String("component", "audit"))}
}

func (s *ZapSink) Emit(_ context.Context, event Event) {
	level := zapcore.InfoLevel
	if !event.Success {
		level = zapcore.WarnLevel
	}
	ce := s.log.Check(level, event.EventType)
	if ce == nil {
		return
	}

	fields := make([]zap.Field, 0, 6+len(event.Metadata))
	fields = append(fields,
		zap.Time("event_ts", event.Timestamp),
		zap.Bool("success", event.Success),
	)
	if event.PrincipalID != "" {
		fields = append(fields, zap.String("principal_id", event.PrincipalID))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error_code", event.Error))
	}
	for k, v := range event.Metadata {
		fields = append(fields, zap.String("meta."+k, v))
	}
	ce.Write(fields...)
}
