package config

import (
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/obs"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	BasePath        string        `mapstructure:"base_path"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

type Cookies struct {
	Secure   bool   `mapstructure:"secure"`
	Domain   string `mapstructure:"domain"`
	Path     string `mapstructure:"path"`
	SameSite string `mapstructure:"same_site"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Tokens struct {
	AccessKey  string        `mapstructure:"access_key"`
	RefreshKey string        `mapstructure:"refresh_key"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	Issuer     string        `mapstructure:"issuer"`
	Leeway     time.Duration `mapstructure:"leeway"`
}

type Password struct {
	Memory      uint32 `mapstructure:"memory"`
	Time        uint32 `mapstructure:"time"`
	Parallelism uint8  `mapstructure:"parallelism"`
}

type Postgres struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	Migrate         bool          `mapstructure:"migrate"`
}

type Mongo struct {
	URI string `mapstructure:"uri"`
}

// Store selects where principals live: memory, postgres, or mongo.
type Store struct {
	Backend  string   `mapstructure:"backend"`
	Postgres Postgres `mapstructure:"postgres"`
	Mongo    Mongo    `mapstructure:"mongo"`
}

type Redis struct {
	Addrs    []string `mapstructure:"addrs"`
	Password string   `mapstructure:"password"`
	DB       int      `mapstructure:"db"`
	Prefix   string   `mapstructure:"prefix"`
}

// Session selects where refresh digests live: store (same as principals),
// redis, or miniredis (in-process, dev only).
type Session struct {
	Backend string `mapstructure:"backend"`
	Redis   Redis  `mapstructure:"redis"`
}

type MinIO struct {
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// Media selects the upload target: minio, or dev (discards bodies).
type Media struct {
	Backend       string `mapstructure:"backend"`
	MaxAssetBytes int64  `mapstructure:"max_asset_bytes"`
	MinIO         MinIO  `mapstructure:"minio"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Audit selects the audit sink: none, zap, or kafka.
type Audit struct {
	Sink       string `mapstructure:"sink"`
	BufferSize int    `mapstructure:"buffer_size"`
	Kafka      Kafka  `mapstructure:"kafka"`
}

// Metrics controls the counters, the Prometheus endpoint and, when
// OTelInterval is positive, a periodic OpenTelemetry collection logged via zap.
type Metrics struct {
	Enabled      bool          `mapstructure:"enabled"`
	Latency      bool          `mapstructure:"latency"`
	Path         string        `mapstructure:"path"`
	OTelInterval time.Duration `mapstructure:"otel_interval"`
}

type Config struct {
	App      App      `mapstructure:"app"`
	Server   Server   `mapstructure:"server"`
	Cookies  Cookies  `mapstructure:"cookies"`
	Log      Log      `mapstructure:"log"`
	Tokens   Tokens   `mapstructure:"tokens"`
	Password Password `mapstructure:"password"`
	Store    Store    `mapstructure:"store"`
	Session  Session  `mapstructure:"session"`
	Media    Media    `mapstructure:"media"`
	Audit    Audit    `mapstructure:"audit"`
	Metrics  Metrics  `mapstructure:"metrics"`
}

func (c *Config) LoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

// EngineConfig converts the loaded values into a goSession.Config. Fields
// left at zero keep the library defaults.
func (c *Config) EngineConfig() goSession.Config {
	out := goSession.DefaultConfig()

	out.Tokens.AccessSigningKey = []byte(c.Tokens.AccessKey)
	out.Tokens.RefreshSigningKey = []byte(c.Tokens.RefreshKey)
	if c.Tokens.AccessTTL > 0 {
		out.Tokens.AccessTTL = c.Tokens.AccessTTL
	}
	if c.Tokens.RefreshTTL > 0 {
		out.Tokens.RefreshTTL = c.Tokens.RefreshTTL
	}
	if c.Tokens.Issuer != "" {
		out.Tokens.Issuer = c.Tokens.Issuer
	}
	out.Tokens.Leeway = c.Tokens.Leeway

	if c.Password.Memory > 0 {
		out.Password.Memory = c.Password.Memory
	}
	if c.Password.Time > 0 {
		out.Password.Time = c.Password.Time
	}
	if c.Password.Parallelism > 0 {
		out.Password.Parallelism = c.Password.Parallelism
	}

	if c.Session.Redis.Prefix != "" {
		out.Session.RedisPrefix = c.Session.Redis.Prefix
	}

	out.Audit.Enabled = c.Audit.Sink != "" && c.Audit.Sink != "none"
	if c.Audit.BufferSize > 0 {
		out.Audit.BufferSize = c.Audit.BufferSize
	}

	out.Metrics.Enabled = c.Metrics.Enabled
	out.Metrics.EnableLatencyHistograms = c.Metrics.Enabled && c.Metrics.Latency

	if c.Media.MaxAssetBytes > 0 {
		out.Media.MaxAssetBytes = c.Media.MaxAssetBytes
	}
	return out
}
