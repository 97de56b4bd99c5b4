// Package config loads the application configuration from YAML with
// environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeOIDC     = "oidc"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Validator is implemented by configuration types that can check themselves.
type Validator interface {
	Validate() error
}

// Load reads filename into target, expanding ${VAR} references first. A
// target implementing Validator is validated after decoding.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("parse config file %s: %w", filename, err)
	}

	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// LoadOrDefault is Load, except that a missing file leaves target as is and
// only validates it.
func LoadOrDefault[T any](filename string, target *T) error {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		if v, ok := any(target).(Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("config validation failed: %w", err)
			}
		}
		return nil
	}
	return Load(filename, target)
}

// Config represents the application configuration.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Storage StorageConfig `yaml:"storage"`
	Catalog CatalogConfig `yaml:"catalog"`
	Search  SearchConfig  `yaml:"search"`
	Auth    AuthConfig    `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []Validator{&c.App, &c.Storage, &c.Catalog, &c.Search, &c.Auth} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *AppConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.Required, validation.In(LogFormatText, LogFormatJSON)),
	); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("app.http: %w", err)
	}
	return nil
}

// StorageConfig selects where meal lists are persisted.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite and a connection string for postgres.
	DSN string `yaml:"dsn"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverMemory, DriverSQLite, DriverPostgres)),
		validation.Field(&c.DSN, validation.When(c.Driver != DriverMemory, validation.Required)),
	); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// CatalogConfig configures the Open Food Facts client.
type CatalogConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
	PageSize  int    `yaml:"page_size"`
	// Timeout bounds each catalog request. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.UserAgent, validation.Required),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	return nil
}

// SearchConfig configures the live search sessions.
type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required, validation.Min(time.Millisecond)),
	); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how callers are identified:
//   - "disabled" (default): every request acts as the local user.
//   - "oidc": requests carry a bearer ID token issued by Issuer for ClientID.
type AuthConfig struct {
	Mode     string `yaml:"mode"`
	Issuer   string `yaml:"issuer"`
	ClientID string `yaml:"client_id"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	oidc := c.Mode == AuthModeOIDC
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeOIDC)),
		validation.Field(&c.Issuer, validation.When(oidc, validation.Required, is.URL)),
		validation.Field(&c.ClientID, validation.When(oidc, validation.Required)),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

// NewDefaultConfig returns a Config usable without any file.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
			HTTP: HTTPConfig{
				Port:            8080,
				ShutdownTimeout: 10 * time.Second,
			},
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			DSN:    "./data/foodfollow.db",
		},
		Catalog: CatalogConfig{
			BaseURL:   "https://fr.openfoodfacts.org",
			UserAgent: "FoodFollow/1.0 (server)",
			PageSize:  10,
		},
		Search: SearchConfig{
			Debounce: 450 * time.Millisecond,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
