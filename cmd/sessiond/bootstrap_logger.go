package main

import (
	"github.com/MrEthical07/goSession/cmd/sessiond/internal/config"
	"github.com/MrEthical07/goSession/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.LoggerConfig())
}
