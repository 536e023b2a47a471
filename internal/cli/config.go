// Package cli holds the supporting pieces of the scquery command:
// configuration loading, logging setup, filter parsing and CSV export.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	securitycenter "github.com/tphakala/go-securitycenter"
)

// Config is the scquery YAML configuration.
type Config struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Scheme      string `yaml:"scheme"`
	InsecureTLS bool   `yaml:"insecure_tls"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	Retries        int `yaml:"retries"`
	TimeoutSeconds int `yaml:"timeout_seconds"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures structured logging for the command.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

const defaultConfig = `# scquery configuration

# SecurityCenter endpoint
host: ""
port: 443
scheme: "https"
# SecurityCenter is commonly installed without a verifiable certificate
# chain; set to true to skip TLS verification.
insecure_tls: false

# Credentials
username: ""
password: ""

# Transport policy
retries: 3
timeout_seconds: 30

# Logging (file empty = stderr only)
log:
  level: "info"
  file: ""
  max_size_mb: 100
  max_backups: 3
  max_age_days: 28
`

// LoadConfig reads the YAML config at path. When the file does not exist, a
// commented default is written there and generated=true is returned so the
// caller can tell the user to fill it in and exit.
func LoadConfig(path string) (cfg *Config, generated bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, false, fmt.Errorf("reading config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
			return nil, false, fmt.Errorf("writing default config: %w", err)
		}
		return nil, true, nil
	}

	cfg = &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, false, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Host == "" {
		return nil, false, fmt.Errorf("config %s: host must be set", path)
	}
	if cfg.Port == 0 {
		cfg.Port = 443
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "https"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, false, nil
}

// ParseFilter parses a field:operator:value triple from the command line,
// e.g. "ip:=:10.10.0.0/16". The value part may itself contain colons.
func ParseFilter(s string) (securitycenter.Filter, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return securitycenter.Filter{}, fmt.Errorf("invalid filter %q: want field:operator:value", s)
	}
	return securitycenter.F(parts[0], parts[1], parts[2]), nil
}
