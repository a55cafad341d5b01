package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. SESSIOND_TOKENS_ACCESS_KEY.
const EnvPrefix = "SESSIOND"

// Load reads an optional YAML file at path, applies defaults, and lets
// SESSIOND_* environment variables override any key.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetDefault("app.name", "sessiond")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.version", "")

	v.SetDefault("server.http_addr", ":8000")
	v.SetDefault("server.base_path", "/api/v1/users")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.max_upload_bytes", 16<<20)

	v.SetDefault("cookies.secure", true)
	v.SetDefault("cookies.domain", "")
	v.SetDefault("cookies.path", "/")
	v.SetDefault("cookies.same_site", "lax")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("tokens.access_key", "")
	v.SetDefault("tokens.refresh_key", "")
	v.SetDefault("tokens.access_ttl", "15m")
	v.SetDefault("tokens.refresh_ttl", "240h")
	v.SetDefault("tokens.issuer", "gosession")
	v.SetDefault("tokens.leeway", "0s")

	v.SetDefault("password.memory", 0)
	v.SetDefault("password.time", 0)
	v.SetDefault("password.parallelism", 0)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.max_conns", 20)
	v.SetDefault("store.postgres.min_conns", 2)
	v.SetDefault("store.postgres.max_conn_lifetime", "30m")
	v.SetDefault("store.postgres.max_conn_idle_time", "10m")
	v.SetDefault("store.postgres.query_timeout", "2s")
	v.SetDefault("store.postgres.migrate", true)
	v.SetDefault("store.mongo.uri", "")

	v.SetDefault("session.backend", "store")
	v.SetDefault("session.redis.addrs", []string{"localhost:6379"})
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.prefix", "gs")

	v.SetDefault("media.backend", "dev")
	v.SetDefault("media.max_asset_bytes", 10<<20)
	v.SetDefault("media.minio.endpoint", "localhost:9000")
	v.SetDefault("media.minio.access_key", "")
	v.SetDefault("media.minio.secret_key", "")
	v.SetDefault("media.minio.bucket", "profiles")
	v.SetDefault("media.minio.public_base_url", "")

	v.SetDefault("audit.sink", "none")
	v.SetDefault("audit.buffer_size", 1024)
	v.SetDefault("audit.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("audit.kafka.topic", "gosession.audit")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.latency", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.otel_interval", "0s")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend names and the settings each backend needs.
// Token keys are checked by goSession.Config.Validate when the engine is built.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return errors.New("store.postgres.dsn is required for the postgres backend")
		}
	case "mongo":
		if c.Store.Mongo.URI == "" {
			return errors.New("store.mongo.uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}

	switch c.Session.Backend {
	case "store", "miniredis":
	case "redis":
		if len(c.Session.Redis.Addrs) == 0 {
			return errors.New("session.redis.addrs is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown session.backend %q", c.Session.Backend)
	}

	switch c.Media.Backend {
	case "dev":
	case "minio":
		if c.Media.MinIO.Bucket == "" {
			return errors.New("media.minio.bucket is required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown media.backend %q", c.Media.Backend)
	}

	switch c.Audit.Sink {
	case "none", "zap":
	case "kafka":
		if len(c.Audit.Kafka.Brokers) == 0 || c.Audit.Kafka.Topic == "" {
			return errors.New("audit.kafka.brokers and audit.kafka.topic are required for the kafka sink")
		}
	default:
		return fmt.Errorf("unknown audit.sink %q", c.Audit.Sink)
	}

	if c.Metrics.OTelInterval < 0 {
		return errors.New("metrics.otel_interval must not be negative")
	}

	switch strings.ToLower(c.Cookies.SameSite) {
	case "lax", "strict", "none", "":
	default:
		return fmt.Errorf("unknown cookies.same_site %q", c.Cookies.SameSite)
	}
	return nil
}
