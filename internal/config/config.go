// Package config provides configuration management for propeller.
//
// Configuration is read once per invocation from the YAML file named on the
// command line and is immutable afterwards. Validation rejects incomplete
// configuration before any side effect happens.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/postfinance/propeller/internal/pkg/errors"
)

// Config is the root configuration structure.
type Config struct {
	ArgoCD   ArgoCDConfig   `mapstructure:"argo_cd"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Vault    VaultConfig    `mapstructure:"vault"`
}

// ArgoCDConfig contains the deployment gateway settings.
type ArgoCDConfig struct {
	Application          string `mapstructure:"application"`
	BaseURL              string `mapstructure:"base_url"`
	SyncTimeoutSeconds   int    `mapstructure:"sync_timeout_seconds"`
	DangerAcceptInsecure bool   `mapstructure:"danger_accept_insecure"`
}

// SyncTimeout returns the budget for a single sync/health wait.
func (c ArgoCDConfig) SyncTimeout() time.Duration {
	return time.Duration(c.SyncTimeoutSeconds) * time.Second
}

// PostgresConfig contains the PostgreSQL connection target.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
}

// DSN returns the connection string for the configured target and the given
// credentials. TLS is not configured; the rotation runs next to the database.
func (c PostgresConfig) DSN(user, password string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// VaultConfig contains the secret store endpoint and document path.
type VaultConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from the given YAML file.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid,
			fmt.Sprintf("failed to read configuration file '%s'", path))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid,
			fmt.Sprintf("failed to parse configuration file '%s'", path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that every required key is present and well-formed.
func (c *Config) Validate() error {
	required := []struct {
		key string
		ok  bool
	}{
		{"argo_cd.application", c.ArgoCD.Application != ""},
		{"argo_cd.base_url", c.ArgoCD.BaseURL != ""},
		{"postgres.host", c.Postgres.Host != ""},
		{"postgres.port", c.Postgres.Port >= 1},
		{"postgres.database", c.Postgres.Database != ""},
		{"vault.base_url", c.Vault.BaseURL != ""},
		{"vault.path", c.Vault.Path != ""},
	}

	for _, r := range required {
		if !r.ok {
			return apperrors.New(apperrors.CodeConfigInvalid,
				fmt.Sprintf("missing required configuration key '%s'", r.key))
		}
	}

	if c.ArgoCD.SyncTimeoutSeconds < 1 {
		return apperrors.New(apperrors.CodeConfigInvalid,
			"'argo_cd.sync_timeout_seconds' must be at least 1")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("argo_cd.sync_timeout_seconds", 60)
	v.SetDefault("argo_cd.danger_accept_insecure", false)
}
