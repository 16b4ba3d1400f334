package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lborres/walletbind/core"
)

func envMap(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultShouldValidateOnceDatabaseIsSet(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); !errors.Is(err, core.ErrMisconfigured) {
		t.Fatalf("Validate() without database error = %v, want ErrMisconfigured", err)
	}
	cfg.Database.URL = "postgres://localhost/walletbind"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadShouldMergeFileThenEnv(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlDoc := `
listen: ":9000"
basePath: /auth
database:
  url: postgres://file/walletbind
session:
  maxAge: 12h
cache:
  ttl: 1m
  maxSize: 50
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WALLETBIND_DATABASE_URL", "postgres://env/walletbind")
	t.Setenv("WALLETBIND_CACHE_SIZE", "75")

	// Act
	cfg, err := Load(path)

	// Assert
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != ":9000" || cfg.BasePath != "/auth" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Database.URL != "postgres://env/walletbind" {
		t.Errorf("env should override file, got %q", cfg.Database.URL)
	}
	if cfg.Session.MaxAge != 12*time.Hour || cfg.Cache.TTL != time.Minute || cfg.Cache.MaxSize != 75 {
		t.Errorf("durations or sizes wrong: %+v", cfg)
	}
	if cfg.Session.TransferTokenTTL != 5*time.Minute {
		t.Errorf("unset values should keep defaults, got %v", cfg.Session.TransferTokenTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadShouldFailOnMissingOrBrokenFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, core.ErrMisconfigured) {
		t.Errorf("Load(missing) error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	_ = os.WriteFile(path, []byte("session: [unclosed"), 0o600)
	if _, err := Load(path); !errors.Is(err, core.ErrMisconfigured) {
		t.Errorf("Load(broken) error = %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(File) bool
		wantErr bool
	}{
		{
			name:  "strings and flags",
			env:   map[string]string{"WALLETBIND_REDIS_ADDR": "localhost:6379", "WALLETBIND_METRICS_ENABLED": "true", "WALLETBIND_CACHE_DISABLED": "1"},
			check: func(f File) bool { return f.Redis.Addr == "localhost:6379" && f.Metrics.Enabled && f.Cache.Disabled },
		},
		{
			name:  "durations",
			env:   map[string]string{"WALLETBIND_TRANSFER_TOKEN_TTL": "90s", "WALLETBIND_SESSION_SWEEP_INTERVAL": "1h"},
			check: func(f File) bool { return f.Session.TransferTokenTTL == 90*time.Second && f.Session.SweepInterval == time.Hour },
		},
		{name: "bad duration", env: map[string]string{"WALLETBIND_SESSION_MAX_AGE": "forever"}, wantErr: true},
		{name: "bad number", env: map[string]string{"WALLETBIND_REDIS_DB": "one"}, wantErr: true},
		{name: "bad flag", env: map[string]string{"WALLETBIND_METRICS_ENABLED": "maybe"}, wantErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			err := applyEnv(&cfg, envMap(test.env))
			if test.wantErr {
				if !errors.Is(err, core.ErrMisconfigured) {
					t.Errorf("applyEnv() error = %v, want ErrMisconfigured", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("applyEnv() error = %v", err)
			}
			if !test.check(cfg) {
				t.Errorf("applyEnv() result = %+v", cfg)
			}
		})
	}
}

func TestValidateShouldReportEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Database.URL = "postgres://x"
	cfg.BasePath = "auth"
	cfg.Session.MaxAge = 0
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	if !errors.Is(err, core.ErrMisconfigured) {
		t.Fatalf("Validate() error = %v", err)
	}
	for _, want := range []string{"base path", "max age", "log level", "log format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q should mention %q", err, want)
		}
	}
}

func TestLogConfigLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("unexpected log output %q", out)
	}
}
