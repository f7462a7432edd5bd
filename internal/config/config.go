// Package config loads process configuration from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved process configuration.
type Config struct {
	// DatabaseURL selects the relational backend; empty means memory.
	DatabaseURL string
	LogLevel    string
	LogFormat   string
	// HTTPAddr is where the ops server (health, metrics, status API) listens.
	HTTPAddr      string
	SweepInterval time.Duration
	SSO           SSO
}

// SSO configures OpenID Connect sign-in. It is off unless ClientID is set.
type SSO struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether single sign-on is configured.
func (s SSO) Enabled() bool {
	return s.ClientID != ""
}

// Load reads path (if non-empty) and overlays CAPSULE_* environment
// variables. DATABASE_URL is honoured as well as CAPSULE_DATABASE_URL.
//
// Quote sqlite URLs in YAML; an unquoted trailing colon is a parse error:
//
//	database_url: "sqlite::memory:"
//	database_url: "sqlite:/var/lib/capsule/capsule.db"
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("sweep.interval", "15m")
	v.SetDefault("sso.issuer", "https://accounts.google.com")
	v.SetDefault("sso.client_id", "")
	v.SetDefault("sso.client_secret", "")
	v.SetDefault("sso.redirect_url", "")

	v.SetEnvPrefix("CAPSULE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", "CAPSULE_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:   v.GetString("database_url"),
		LogLevel:      v.GetString("log.level"),
		LogFormat:     v.GetString("log.format"),
		HTTPAddr:      v.GetString("http.addr"),
		SweepInterval: v.GetDuration("sweep.interval"),
		SSO: SSO{
			Issuer:       v.GetString("sso.issuer"),
			ClientID:     v.GetString("sso.client_id"),
			ClientSecret: v.GetString("sso.client_secret"),
			RedirectURL:  v.GetString("sso.redirect_url"),
		},
	}
	if cfg.SweepInterval <= 0 {
		return nil, errors.New("sweep.interval must be positive")
	}
	if cfg.SSO.Enabled() && cfg.SSO.RedirectURL == "" {
		return nil, errors.New("sso.redirect_url is required when sso.client_id is set")
	}
	return cfg, nil
}
