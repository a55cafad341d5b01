package main

import (
	"context"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/cmd/sessiond/internal/config"
	sessionotel "github.com/MrEthical07/goSession/metrics/export/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// initOTelMetrics starts a periodic OpenTelemetry collection of engine
// metrics written to the log. It is a no-op unless metrics are enabled and
// metrics.otel_interval is positive.
func initOTelMetrics(cfg *config.Config, logger *zap.Logger, engine *goSession.Engine) (func(context.Context) error, error) {
	if !cfg.Metrics.Enabled || cfg.Metrics.OTelInterval <= 0 {
		return func(context.Context) error { return nil }, nil
	}

	reader := sdkmetric.NewPeriodicReader(
		sessionotel.NewLogExporter(logger.Named("otel")),
		sdkmetric.WithInterval(cfg.Metrics.OTelInterval),
	)
	provider, err := sessionotel.NewProvider(engine, reader)
	if err != nil {
		return nil, err
	}
	logger.Info("otel metrics enabled", zap.Duration("interval", cfg.Metrics.OTelInterval))
	return provider.Shutdown, nil
}
