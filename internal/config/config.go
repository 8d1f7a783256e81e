// Package config loads and validates relay configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Downstream DownstreamConfig `mapstructure:"downstream"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig names the service in metadata responses and traces.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                     int `mapstructure:"port"`
	ReadHeaderTimeoutSeconds int `mapstructure:"read_header_timeout_seconds"`
	ShutdownTimeoutSeconds   int `mapstructure:"shutdown_timeout_seconds"`
}

// DownstreamConfig describes the workflow webhook submissions are forwarded to.
type DownstreamConfig struct {
	WebhookURL     string `mapstructure:"webhook_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	// StrictStatus fails submissions the webhook answers with anything other
	// than 200/201. When false those are logged and reported as success.
	StrictStatus bool   `mapstructure:"strict_status"`
	UserAgent    string `mapstructure:"user_agent"`
}

// CORSConfig is handed to the CORS middleware as-is.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// TelemetryConfig toggles OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Downstream.WebhookURL = strings.TrimSpace(cfg.Downstream.WebhookURL)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Article Summarizer API")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", 10000)
	v.SetDefault("server.read_header_timeout_seconds", 5)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("downstream.webhook_url", "")
	v.SetDefault("downstream.timeout_seconds", 30)
	v.SetDefault("downstream.strict_status", false)
	v.SetDefault("downstream.user_agent", "ArticleSummarizer-Relay/1.0.0")
	v.SetDefault("cors.allowed_origins", []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"https://*.vercel.app",
	})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age_seconds", 300)
	v.SetDefault("logging.development", false)
	v.SetDefault("telemetry.enabled", true)
}

// bindLegacyEnv keeps the variable names hosting platforms already set.
func bindLegacyEnv(v *viper.Viper) error {
	if err := v.BindEnv("downstream.webhook_url", "RELAY_DOWNSTREAM_WEBHOOK_URL", "N8N_WEBHOOK_URL"); err != nil {
		return fmt.Errorf("bind webhook env: %w", err)
	}
	if err := v.BindEnv("server.port", "RELAY_SERVER_PORT", "PORT"); err != nil {
		return fmt.Errorf("bind port env: %w", err)
	}
	return nil
}

// Validate enforces required values and reasonable limits.
// An empty webhook URL is allowed: only submissions depend on it.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Downstream.TimeoutSeconds <= 0 {
		return fmt.Errorf("downstream.timeout_seconds must be > 0")
	}
	if c.Downstream.WebhookURL != "" {
		u, err := url.Parse(c.Downstream.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("downstream.webhook_url must be an absolute http(s) URL")
		}
	}
	if c.CORS.MaxAgeSeconds < 0 {
		return fmt.Errorf("cors.max_age_seconds must be >= 0")
	}
	return nil
}

// DownstreamTimeout converts the configured webhook timeout to a duration.
func (c Config) DownstreamTimeout() time.Duration {
	return time.Duration(c.Downstream.TimeoutSeconds) * time.Second
}

// WebhookConfigured reports whether submissions have somewhere to go.
func (c Config) WebhookConfigured() bool {
	return c.Downstream.WebhookURL != ""
}
