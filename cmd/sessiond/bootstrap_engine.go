package main

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/cmd/sessiond/internal/config"
)

func buildEngine(cfg *config.Config, logger *zap.Logger, b *backends) (*goSession.Engine, error) {
	builder := goSession.New().
		WithConfig(cfg.EngineConfig()).
		WithPrincipalStore(b.principals).
		WithMediaStore(b.media).
		WithLogger(logger).
		WithMetricsEnabled(cfg.Metrics.Enabled).
		WithLatencyHistograms(cfg.Metrics.Enabled && cfg.Metrics.Latency)
	if b.redis != nil {
		builder = builder.WithRedis(b.redis)
	}
	if b.audit != nil {
		builder = builder.WithAuditSink(b.audit)
	}
	return builder.Build()
}

// devMedia drains uploads and hands back a local path. Nothing is stored.
type devMedia struct {
	logger *zap.Logger
}

func (m devMedia) Upload(_ context.Context, principalID string, kind goSession.AssetKind, asset goSession.MediaAsset) (string, error) {
	n, err := io.Copy(io.Discard, asset.Body)
	if err != nil {
		return "", fmt.Errorf("dev media: %w", err)
	}
	uri := "/" + path.Join("media", string(kind), principalID, uuid.NewString()+path.Ext(asset.Filename))
	m.logger.Debug("dev upload discarded", zap.String("uri", uri), zap.Int64("bytes", n))
	return uri, nil
}
