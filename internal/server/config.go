package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bakert/surveilrise/internal/query"
	"gopkg.in/yaml.v3"
)

// Config holds server configuration.
type Config struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	DBUrl    string `yaml:"db_url"`
	TLSCert  string `yaml:"tls_cert"`
	TLSKey   string `yaml:"tls_key"`
	APIKey   string `yaml:"api_key"`
	PageSize int    `yaml:"page_size"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:     8378,
		Bind:     "0.0.0.0",
		PageSize: query.DefaultPageSize,
	}
}

// DefaultConfigPath is ~/.surveilrise/server.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".surveilrise", "server.yaml")
}

// LoadConfig loads server config from ~/.surveilrise/server.yaml, falling back
// to defaults. See LoadConfigFile for the environment overrides.
func LoadConfig() (Config, error) {
	return LoadConfigFile(DefaultConfigPath())
}

// LoadConfigFile loads server config from path. A missing file is not an
// error. Environment variables override file values: SURVEILRISE_SERVER_PORT,
// SURVEILRISE_SERVER_BIND, SURVEILRISE_SERVER_DB_URL, SURVEILRISE_SERVER_TLS_CERT,
// SURVEILRISE_SERVER_TLS_KEY, SURVEILRISE_SERVER_API_KEY, SURVEILRISE_SERVER_PAGE_SIZE.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("invalid config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if v := os.Getenv("SURVEILRISE_SERVER_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid SURVEILRISE_SERVER_PORT %q: %w", v, err)
		}
		cfg.Port = n
	}
	if v := os.Getenv("SURVEILRISE_SERVER_BIND"); v != "" {
		cfg.Bind = v
	}
	if v := os.Getenv("SURVEILRISE_SERVER_DB_URL"); v != "" {
		cfg.DBUrl = v
	}
	if v := os.Getenv("SURVEILRISE_SERVER_TLS_CERT"); v != "" {
		cfg.TLSCert = v
	}
	if v := os.Getenv("SURVEILRISE_SERVER_TLS_KEY"); v != "" {
		cfg.TLSKey = v
	}
	if v := os.Getenv("SURVEILRISE_SERVER_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("SURVEILRISE_SERVER_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid SURVEILRISE_SERVER_PAGE_SIZE %q: %w", v, err)
		}
		cfg.PageSize = n
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = query.DefaultPageSize
	}
	return cfg, nil
}

// Addr returns the listen address as "bind:port".
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// HasTLS returns true if both TLS cert and key are configured.
func (c Config) HasTLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}
