package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Supabase   SupabaseConfig   `mapstructure:"supabase"`
	Storage    StorageConfig    `mapstructure:"storage"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Notion     NotionConfig     `mapstructure:"notion"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
	Versioning VersioningConfig `mapstructure:"versioning"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type SupabaseConfig struct {
	URL     string `mapstructure:"url"`
	AnonKey string `mapstructure:"anon_key"`
	Schema  string `mapstructure:"schema"`
}

// StorageConfig selects the project repository implementation.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "supabase" or "postgres"
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type SentryConfig struct {
	DSN              string  `mapstructure:"dsn"`
	Environment      string  `mapstructure:"environment"`
	Release          string  `mapstructure:"release"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate"`
	Debug            bool    `mapstructure:"debug"`
}

type NotionConfig struct {
	Token         string `mapstructure:"token"`
	ParentPageID  string `mapstructure:"parent_page_id"`
	DatabaseID    string `mapstructure:"database_id"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type VersioningConfig struct {
	Default    string   `mapstructure:"default"`
	Supported  []string `mapstructure:"supported"`
	Deprecated []string `mapstructure:"deprecated"`
	Sunset     string   `mapstructure:"sunset"` // YYYY-MM-DD, applies to deprecated versions
	StrictMode bool     `mapstructure:"strict_mode"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.allow_origins", "http://localhost:3000")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 54322)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("supabase.schema", "public")
	v.SetDefault("storage.backend", "supabase")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.traces_sample_rate", 1.0)
	v.SetDefault("sentry.release", "")
	v.SetDefault("sentry.debug", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "notion-plan-queue")
	v.SetDefault("versioning.default", "1")
	v.SetDefault("versioning.supported", []string{"1", "2"})
	v.SetDefault("versioning.deprecated", []string{})
	v.SetDefault("versioning.sunset", "")
	v.SetDefault("versioning.strict_mode", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: CONSTRUCTTRACK_DATABASE_HOST → database.host
	v.SetEnvPrefix("CONSTRUCTTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Well-known unprefixed names shared with the web app and scripts.
	bindings := map[string]string{
		"supabase.url":          "SUPABASE_URL",
		"supabase.anon_key":     "SUPABASE_ANON_KEY",
		"sentry.dsn":            "SENTRY_DSN",
		"notion.token":          "NOTION_TOKEN",
		"notion.parent_page_id": "NOTION_PARENT_PAGE_ID",
		"notion.database_id":    "NOTION_DATABASE_ID",
		"notion.webhook_secret": "NOTION_WEBHOOK_SECRET",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, "CONSTRUCTTRACK_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	switch c.Storage.Backend {
	case "supabase", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be supabase or postgres, got %q", c.Storage.Backend))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Sentry.TracesSampleRate < 0 || c.Sentry.TracesSampleRate > 1 {
		errs = append(errs, "sentry.traces_sample_rate must be within [0, 1]")
	}
	if len(c.Versioning.Supported) == 0 {
		errs = append(errs, "versioning.supported must list at least one version")
	} else if !contains(c.Versioning.Supported, c.Versioning.Default) {
		errs = append(errs, fmt.Sprintf("versioning.default %q is not a supported version", c.Versioning.Default))
	}
	if c.Versioning.Sunset != "" {
		if _, err := time.Parse(time.DateOnly, c.Versioning.Sunset); err != nil {
			errs = append(errs, fmt.Sprintf("versioning.sunset must be YYYY-MM-DD, got %q", c.Versioning.Sunset))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
