package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/cmd/sessiond/internal/config"
	"github.com/MrEthical07/goSession/media/minio"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/store/memory"
	"github.com/MrEthical07/goSession/store/mongo"
	"github.com/MrEthical07/goSession/store/postgres"
)

// backends holds everything the engine is built from, plus the closers that
// release it in reverse order.
type backends struct {
	principals goSession.PrincipalStore
	redis      redis.UniversalClient
	media      goSession.MediaStore
	audit      goSession.AuditSink
	closers    []func()
}

func (b *backends) onClose(fn func()) { b.closers = append(b.closers, fn) }

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

func initBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backends, error) {
	b := &backends{}
	steps := []func(context.Context, *config.Config, *zap.Logger) error{
		b.initPrincipals,
		b.initSessions,
		b.initMedia,
		b.initAudit,
	}
	for _, step := range steps {
		if err := step(ctx, cfg, logger); err != nil {
			b.close()
			return nil, err
		}
	}
	return b, nil
}

func (b *backends) initPrincipals(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	switch cfg.Store.Backend {
	case "postgres":
		pg := cfg.Store.Postgres
		store, err := postgres.New(ctx, postgres.Config{
			URL:             pg.DSN,
			MaxConns:        pg.MaxConns,
			MinConns:        pg.MinConns,
			MaxConnLifetime: pg.MaxConnLifetime,
			MaxConnIdleTime: pg.MaxConnIdleTime,
			QueryTimeout:    pg.QueryTimeout,
		})
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		b.onClose(store.Close)
		if pg.Migrate {
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("postgres migrate: %w", err)
			}
		}
		b.principals = store
	case "mongo":
		store, err := mongo.New(ctx, cfg.Store.Mongo.URI)
		if err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
		b.onClose(func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(cctx); err != nil {
				logger.Warn("mongo disconnect", zap.Error(err))
			}
		})
		b.principals = store
	default:
		logger.Warn("principals are kept in memory and lost on restart")
		b.principals = memory.New()
	}
	return nil
}

func (b *backends) initSessions(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	switch cfg.Session.Backend {
	case "redis":
		rc := cfg.Session.Redis
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    rc.Addrs,
			Password: rc.Password,
			DB:       rc.DB,
		})
		b.onClose(func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		b.redis = client
	case "miniredis":
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("miniredis: %w", err)
		}
		b.onClose(mr.Close)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		b.onClose(func() { _ = client.Close() })
		logger.Info("sessions kept in embedded redis", zap.String("addr", mr.Addr()))
		b.redis = client
	default:
		if _, ok := b.principals.(session.Store); !ok {
			return fmt.Errorf("store backend %q cannot hold sessions", cfg.Store.Backend)
		}
	}
	return nil
}

func (b *backends) initMedia(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Media.Backend != "minio" {
		b.media = devMedia{logger: logger}
		return nil
	}
	mc := cfg.Media.MinIO
	store, err := minio.New(ctx, minio.Config{
		Endpoint:      mc.Endpoint,
		AccessKey:     mc.AccessKey,
		SecretKey:     mc.SecretKey,
		Bucket:        mc.Bucket,
		PublicBaseURL: mc.PublicBaseURL,
	})
	if err != nil {
		return fmt.Errorf("minio: %w", err)
	}
	b.media = store
	return nil
}

func (b *backends) initAudit(_ context.Context, cfg *config.Config, logger *zap.Logger) error {
	switch cfg.Audit.Sink {
	case "zap":
		b.audit = goSession.NewZapSink(logger.Named("audit"))
	case "kafka":
		b.audit = goSession.NewKafkaSink(cfg.Audit.Kafka.Brokers, cfg.Audit.Kafka.Topic, logger)
	}
	return nil
}
