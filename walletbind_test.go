package walletbind

import (
	"context"
	"errors"
	"testing"

	"github.com/lborres/walletbind/services"
)

type recordingHTTP struct {
	handler  AuthHandler
	basePath string
	err      error
}

func (r *recordingHTTP) RegisterRoutes(handler AuthHandler, basePath string) error {
	r.handler = handler
	r.basePath = basePath
	return r.err
}

func validConfig() (Config, *recordingHTTP) {
	http := &recordingHTTP{}
	return Config{
		IdentityStore:  services.NewFakeIdentityStore(),
		SessionStorage: services.NewFakeSessionStorage(),
		HTTP:           http,
	}, http
}

func TestNewShouldRequireAdapters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "identity store", mutate: func(c *Config) { c.IdentityStore = nil }, want: ErrIdentityStoreRequired},
		{name: "session storage", mutate: func(c *Config) { c.SessionStorage = nil }, want: ErrSessionStorageRequired},
		{name: "http adapter", mutate: func(c *Config) { c.HTTP = nil }, want: ErrHTTPAdapterRequired},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			cfg, _ := validConfig()
			test.mutate(&cfg)

			_, err := New(cfg)
			if !errors.Is(err, test.want) {
				t.Fatalf("New() error = %v, want %v", err, test.want)
			}
			if !errors.Is(err, ErrMisconfigured) {
				t.Errorf("New() error %v should be a misconfiguration", err)
			}
		})
	}
}

func TestNewShouldRegisterRoutesWithDefaults(t *testing.T) {
	cfg, http := validConfig()

	service, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if http.basePath != defaultBasePath {
		t.Errorf("basePath = %q, want %q", http.basePath, defaultBasePath)
	}
	if http.handler != AuthHandler(service) {
		t.Error("routes should be registered with the returned service")
	}
}

func TestNewShouldUseMessagePrefix(t *testing.T) {
	cfg, http := validConfig()
	cfg.MessagePrefix = "Sign in to Example: "
	cfg.BasePath = "/auth"

	service, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if http.basePath != "/auth" {
		t.Errorf("basePath = %q", http.basePath)
	}

	msg, err := service.SignableMessage("n-1")
	if err != nil {
		t.Fatalf("SignableMessage() error = %v", err)
	}
	if msg != "Sign in to Example: n-1" {
		t.Errorf("SignableMessage() = %q", msg)
	}
}

func TestNewShouldPropagateRouteErrors(t *testing.T) {
	cfg, http := validConfig()
	http.err = errors.New("duplicate route")

	if _, err := New(cfg); !errors.Is(err, http.err) {
		t.Errorf("New() error = %v, want %v", err, http.err)
	}
}

func TestNewShouldWorkWithoutCache(t *testing.T) {
	cfg, _ := validConfig()
	cfg.DisableCache = true

	service, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := service.GetSession(context.Background(), "missing"); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("GetSession() error = %v, want not authenticated", err)
	}
}
