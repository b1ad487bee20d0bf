package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StorageDisk     = "disk"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageSqlite   = "sqlite"
)

type Config struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Environment   string `toml:"environment"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// logging
	LogLevel    string `toml:"log_level"`
	LogsPath    string `toml:"logs_path"`
	LogToStdout bool   `toml:"log_to_stdout"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// storage
	Storage          string `toml:"storage"`
	SnapshotPath     string `toml:"snapshot_path"`
	SqlitePath       string `toml:"sqlite_path"`
	RedisHost        string `toml:"redis_host"`
	RedisPort        string `toml:"redis_port"`
	RedisSnapshotKey string `toml:"redis_snapshot_key"`
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	// dashboard
	DashboardSourceURL       string   `toml:"dashboard_source_url"`
	Timezone                 string   `toml:"timezone"`
	MaxHeartRate             float64  `toml:"max_heart_rate"`
	IngestRateLimitPerMin    int      `toml:"ingest_rate_limit_per_min"`
	AnalyticsCacheTTLSeconds int      `toml:"analytics_cache_ttl_seconds"`
	AllowedOrigins           []string `toml:"allowed_origins"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the validated config of env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}
	return t.resolve(env)
}

// Parse is Load for an in-memory document.
func Parse(env, doc string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(doc, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return t.resolve(env)
}

func (t *Toml) resolve(env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] not found", env)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config [%s]: %w", env, err)
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.Storage == "" {
		c.Storage = StorageDisk
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = "./data/latest.json"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.MaxHeartRate == 0 {
		c.MaxHeartRate = 195
	}
	if c.AnalyticsCacheTTLSeconds == 0 {
		c.AnalyticsCacheTTLSeconds = 300
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Storage {
	case StorageDisk:
	case StorageRedis:
		if c.RedisHost == "" || c.RedisPort == "" {
			errs = append(errs, errors.New("redis storage needs redis_host and redis_port"))
		}
	case StoragePostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			errs = append(errs, errors.New("postgres storage needs postgres_host, postgres_port and postgres_db_name"))
		}
	case StorageSqlite:
		if c.SqlitePath == "" {
			errs = append(errs, errors.New("sqlite storage needs sqlite_path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage: %q", c.Storage))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if c.MaxHeartRate < 0 {
		errs = append(errs, errors.New("max_heart_rate must be positive"))
	}
	if c.IngestRateLimitPerMin < 0 {
		errs = append(errs, errors.New("ingest_rate_limit_per_min must not be negative"))
	}
	if c.DashboardSourceURL != "" {
		if u, err := url.Parse(c.DashboardSourceURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("dashboard_source_url is not an absolute url: %q", c.DashboardSourceURL))
		}
	}

	return errors.Join(errs...)
}

// Location returns the dashboard time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) AnalyticsCacheTTL() time.Duration {
	return time.Duration(c.AnalyticsCacheTTLSeconds) * time.Second
}

// RedisEnabled reports whether a redis connection is configured, either as
// the snapshot store or for rate limiting.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != "" && c.RedisPort != ""
}
