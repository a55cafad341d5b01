package main

import (
	"net/http"

	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/cmd/sessiond/internal/config"
	"github.com/MrEthical07/goSession/cmd/sessiond/internal/httpapi"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, engine *goSession.Engine) *http.Server {
	opts := httpapi.Options{
		Logger:         logger.Named("http"),
		BasePath:       cfg.Server.BasePath,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Cookies: httpapi.CookieOptions{
			Secure:     cfg.Cookies.Secure,
			Domain:     cfg.Cookies.Domain,
			Path:       cfg.Cookies.Path,
			SameSite:   cfg.Cookies.SameSite,
			AccessTTL:  cfg.EngineConfig().Tokens.AccessTTL,
			RefreshTTL: cfg.EngineConfig().Tokens.RefreshTTL,
		},
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = prometheus.Handler(engine)
		opts.MetricsPath = cfg.Metrics.Path
	}

	return &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      httpapi.NewRouter(engine, opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr), zap.String("base_path", cfg.Server.BasePath))
	return srv.ListenAndServe()
}
