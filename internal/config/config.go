// Package config loads and validates site configuration via Viper.
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
	Server    ServerConfig    `mapstructure:"server"`
	Site      SiteConfig      `mapstructure:"site"`
	CMS       CMSConfig       `mapstructure:"cms"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	RequestTimeout int `mapstructure:"request_timeout_seconds"`
}

// SiteConfig describes the public identity of the rendered site.
type SiteConfig struct {
	Name        string `mapstructure:"name"`
	BaseURL     string `mapstructure:"base_url"`
	Description string `mapstructure:"description"`
	DevOrigin   string `mapstructure:"dev_origin"`
}

// CMSConfig governs access to the upstream content API.
type CMSConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	RevalidateSeconds int    `mapstructure:"revalidate_seconds"`
}

// RateLimitConfig controls the upstream request limiter.
type RateLimitConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	DefaultRPS   float64 `mapstructure:"default_rps"`
	DefaultBurst int     `mapstructure:"default_burst"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LAUNCHWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.request_timeout_seconds", 30)
	v.SetDefault("site.name", "Launchwire")
	v.SetDefault("site.base_url", "http://localhost:3000")
	v.SetDefault("site.description", "Startup news, funding rounds, and rising hubs.")
	v.SetDefault("site.dev_origin", "http://localhost:8000")
	v.SetDefault("cms.base_url", "http://localhost:8000/api")
	v.SetDefault("cms.timeout_seconds", 15)
	v.SetDefault("cms.revalidate_seconds", 60)
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.default_rps", 50)
	v.SetDefault("rate_limit.default_burst", 25)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.CMS.BaseURL == "" {
		return fmt.Errorf("cms.base_url must be set")
	}
	if _, err := url.Parse(c.CMS.BaseURL); err != nil {
		return fmt.Errorf("cms.base_url invalid: %w", err)
	}
	if c.CMS.TimeoutSeconds <= 0 {
		return fmt.Errorf("cms.timeout_seconds must be > 0")
	}
	if c.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url must be set")
	}
	if c.RateLimit.Enabled && c.RateLimit.DefaultRPS <= 0 {
		return fmt.Errorf("rate_limit.default_rps must be > 0 when rate limiting is enabled")
	}
	return nil
}

// UpstreamTimeout converts the CMS timeout config into a duration.
func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.CMS.TimeoutSeconds) * time.Second
}

// RevalidateWindow converts the CMS revalidate config into a duration.
func (c Config) RevalidateWindow() time.Duration {
	return time.Duration(c.CMS.RevalidateSeconds) * time.Second
}

// BackendOrigin returns the CMS base URL with any trailing /api path
// stripped, leaving the origin that serves media and admin assets.
func (c Config) BackendOrigin() string {
	u, err := url.Parse(c.CMS.BaseURL)
	if err != nil {
		return c.CMS.BaseURL
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
