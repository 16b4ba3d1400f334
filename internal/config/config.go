// Package config loads walletbindd settings from a YAML file, a .env file
// and WALLETBIND_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lborres/walletbind/core"
)

const envPrefix = "WALLETBIND_"

type File struct {
	Listen        string         `yaml:"listen"`
	BasePath      string         `yaml:"basePath"`
	MessagePrefix string         `yaml:"messagePrefix"`
	Database      DatabaseConfig `yaml:"database"`
	Redis         RedisConfig    `yaml:"redis"`
	Session       SessionConfig  `yaml:"session"`
	Cache         CacheConfig    `yaml:"cache"`
	Log           LogConfig      `yaml:"log"`
	Metrics       MetricsConfig  `yaml:"metrics"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig enables the shared session cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	MaxAge           time.Duration `yaml:"maxAge"`
	TransferTokenTTL time.Duration `yaml:"transferTokenTTL"`
	SweepInterval    time.Duration `yaml:"sweepInterval"`
}

type CacheConfig struct {
	Disabled bool          `yaml:"disabled"`
	TTL      time.Duration `yaml:"ttl"`
	MaxSize  int           `yaml:"maxSize"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func Default() File {
	return File{
		Listen:   ":8080",
		BasePath: "/api/auth",
		Session: SessionConfig{
			MaxAge:           24 * time.Hour,
			TransferTokenTTL: 5 * time.Minute,
			SweepInterval:    10 * time.Minute,
		},
		Cache: CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 500,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if path is
// non-empty) and then the environment. A .env file in the working directory
// is loaded into the environment first, when present.
func Load(path string) (File, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("%w: read config: %v", core.ErrMisconfigured, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parse config %s: %v", core.ErrMisconfigured, path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *File, lookup lookupFunc) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %v", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(envPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %v", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookup(envPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %v", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("LISTEN", &cfg.Listen)
	str("BASE_PATH", &cfg.BasePath)
	str("MESSAGE_PREFIX", &cfg.MessagePrefix)
	str("DATABASE_URL", &cfg.Database.URL)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	num("REDIS_DB", &cfg.Redis.DB)
	dur("SESSION_MAX_AGE", &cfg.Session.MaxAge)
	dur("TRANSFER_TOKEN_TTL", &cfg.Session.TransferTokenTTL)
	dur("SESSION_SWEEP_INTERVAL", &cfg.Session.SweepInterval)
	flag("CACHE_DISABLED", &cfg.Cache.Disabled)
	dur("CACHE_TTL", &cfg.Cache.TTL)
	num("CACHE_SIZE", &cfg.Cache.MaxSize)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	flag("METRICS_ENABLED", &cfg.Metrics.Enabled)
	str("METRICS_PATH", &cfg.Metrics.Path)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", core.ErrMisconfigured, errors.Join(errs...))
	}
	return nil
}

// Validate checks everything the server needs before it starts.
func (f File) Validate() error {
	var errs []error
	if f.Database.URL == "" {
		errs = append(errs, errors.New("database url is required"))
	}
	if f.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if !strings.HasPrefix(f.BasePath, "/") {
		errs = append(errs, fmt.Errorf("base path %q must start with /", f.BasePath))
	}
	if f.Session.MaxAge <= 0 {
		errs = append(errs, errors.New("session max age must be positive"))
	}
	if f.Session.TransferTokenTTL <= 0 {
		errs = append(errs, errors.New("transfer token ttl must be positive"))
	}
	if !f.Cache.Disabled && (f.Cache.TTL <= 0 || f.Cache.MaxSize <= 0) {
		errs = append(errs, errors.New("cache ttl and max size must be positive"))
	}
	if _, err := f.Log.level(); err != nil {
		errs = append(errs, err)
	}
	if f.Log.Format != "text" && f.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log format %q must be text or json", f.Log.Format))
	}
	if f.Metrics.Enabled && !strings.HasPrefix(f.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics path %q must start with /", f.Metrics.Path))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", core.ErrMisconfigured, errors.Join(errs...))
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log level %q: %v", l.Level, err)
	}
	return level, nil
}

// Logger builds the process logger. Invalid settings fall back to info and
// text.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
