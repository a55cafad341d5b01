package otel

import (
	"context"
	"errors"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterName is the instrumentation scope of every instrument Register creates.
const MeterName = "github.com/MrEthical07/goSession"

// Provider is a MeterProvider with an Exporter already registered on it.
type Provider struct {
	provider *sdkmetric.MeterProvider
	exporter *Exporter
}

// NewProvider builds a MeterProvider over readers and registers source on it.
func NewProvider(source MetricsSource, readers ...sdkmetric.Reader) (*Provider, error) {
	if len(readers) == 0 {
		return nil, errors.New("at least one reader is required")
	}
	opts := make([]sdkmetric.Option, 0, len(readers))
	for _, r := range readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}
	mp := sdkmetric.NewMeterProvider(opts...)

	exp, err := Register(mp.Meter(MeterName), source)
	if err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, err
	}
	return &Provider{provider: mp, exporter: exp}, nil
}

// Shutdown flushes the readers with one last collection, stops them, and
// then unregisters the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return errors.Join(p.provider.Shutdown(ctx), p.exporter.Close())
}
