package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://demo.supabase.co")
	t.Setenv("NOTION_TOKEN", "secret_abc")

	cfg, err := Load("constructtrack-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "supabase" {
		t.Errorf("expected supabase backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Supabase.URL != "https://demo.supabase.co" {
		t.Errorf("SUPABASE_URL not bound, got %q", cfg.Supabase.URL)
	}
	if cfg.Notion.Token != "secret_abc" {
		t.Errorf("NOTION_TOKEN not bound, got %q", cfg.Notion.Token)
	}
	if cfg.Telemetry.ServiceName != "constructtrack-test" {
		t.Errorf("expected service name default, got %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_PrefixedEnvOverrides(t *testing.T) {
	t.Setenv("CONSTRUCTTRACK_SERVER_PORT", "9091")
	t.Setenv("CONSTRUCTTRACK_STORAGE_BACKEND", "postgres")

	cfg, err := Load("constructtrack-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9091 {
		t.Errorf("expected 9091, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "postgres" {
		t.Errorf("expected postgres, got %q", cfg.Storage.Backend)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	c := &Config{
		Server:     ServerConfig{Port: 0},
		Storage:    StorageConfig{Backend: "dynamo"},
		Versioning: VersioningConfig{Default: "3", Supported: []string{"1"}},
	}
	err := c.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"server.port", "storage.backend", "database.host", "nats.url", "versioning.default"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in error, got:\n%s", want, msg)
		}
	}
}
