// Package config loads the execadmin configuration file (YAML or TOML) and
// layers environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override (EXECADMIN_BACKEND_BASE_URL, ...).
const EnvPrefix = "EXECADMIN_"

const (
	// DefaultTaskCode is the task code of the executive maintenance screens.
	DefaultTaskCode = "SOMNT01"
	// DefaultDateFormat is used when neither the file nor the client store name one.
	DefaultDateFormat = "yyyy/mm/dd"
	// DefaultTimeout bounds a single backend round trip.
	DefaultTimeout = 30 * time.Second
	// DefaultServerAddress is the listen address for `execadmin serve`.
	DefaultServerAddress = ":8080"
	// DefaultExportPageSize is the page size used when paging through results for export.
	DefaultExportPageSize = 100
)

// Config represents the top-level configuration file structure
type Config struct {
	Backend BackendConfig `yaml:"backend" toml:"backend" envPrefix:"BACKEND_"`
	Client  ClientConfig  `yaml:"client" toml:"client" envPrefix:"CLIENT_"`
	Server  ServerConfig  `yaml:"server" toml:"server" envPrefix:"SERVER_"`
	Export  ExportConfig  `yaml:"export" toml:"export" envPrefix:"EXPORT_"`
}

// BackendConfig locates the REST backend that owns executive records.
type BackendConfig struct {
	BaseURL string        `yaml:"baseURL" toml:"baseURL" env:"BASE_URL"`
	Token   string        `yaml:"token" toml:"token" env:"TOKEN"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout" env:"TIMEOUT"`
}

// ClientConfig holds client-side settings (task code, store location, date format).
type ClientConfig struct {
	TaskCode   string `yaml:"taskCode" toml:"taskCode" env:"TASK_CODE"`
	StatePath  string `yaml:"statePath" toml:"statePath" env:"STATE_PATH"`
	DateFormat string `yaml:"dateFormat" toml:"dateFormat" env:"DATE_FORMAT"`
}

// ServerConfig configures the browser-facing JSON surface.
type ServerConfig struct {
	Address        string   `yaml:"address" toml:"address" env:"ADDRESS"`
	AllowedOrigins []string `yaml:"allowedOrigins" toml:"allowedOrigins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// ExportConfig controls grid export output.
type ExportConfig struct {
	Directory string `yaml:"directory" toml:"directory" env:"DIRECTORY"`
	PageSize  int    `yaml:"pageSize" toml:"pageSize" env:"PAGE_SIZE"`
}

// LoadFromFile reads a YAML (or .toml) configuration file, applies .env and
// environment overrides, then defaults. An empty filename skips the file.
func LoadFromFile(filename string) (*Config, error) {
	cfg, err := load(filename)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// LoadLocal is LoadFromFile without the backend checks. Commands that only
// touch the client settings store use it.
func LoadLocal(filename string) (*Config, error) {
	cfg, err := load(filename)
	if err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func load(filename string) (*Config, error) {
	var cfg Config

	if filename != "" {
		data, err := os.ReadFile(filepath.Clean(filename))
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(filename, data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if _, err := LoadEnvFiles(".env", ".env.local"); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return &cfg, nil
}

func decode(filename string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// LoadEnvFiles loads whichever of the given dotenv files exist. Variables
// already present in the process environment win. It returns how many files
// were loaded.
func LoadEnvFiles(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// ApplyDefaults fills unset values and validates required fields
func (c *Config) ApplyDefaults() error {
	c.fillDefaults()

	// Validate required fields
	if c.Backend.BaseURL == "" {
		return errors.New("backend: missing required field 'baseURL'")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend: invalid baseURL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend: baseURL must be http or https, got %q", c.Backend.BaseURL)
	}
	return nil
}

// BackendHost is the host part of the backend URL. Stored tokens are keyed by it.
func (c *Config) BackendHost() string {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func (c *Config) fillDefaults() {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = DefaultTimeout
	}
	if c.Client.TaskCode == "" {
		c.Client.TaskCode = DefaultTaskCode
	}
	if c.Client.DateFormat == "" {
		c.Client.DateFormat = DefaultDateFormat
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultServerAddress
	}
	if c.Export.Directory == "" {
		c.Export.Directory = "."
	}
	if c.Export.PageSize <= 0 {
		c.Export.PageSize = DefaultExportPageSize
	}
}
