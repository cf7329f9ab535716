// Package config handles the .configgery.yaml device configuration file.
//
// The file lives in the working directory (or at a path given with
// --config) and contains:
//
//	server_url: "https://device.api.configgery.com/"  - device API base URL
//	directory: "/var/lib/configgery"                  - data directory
//	certificate: "/etc/configgery/client.crt"         - client certificate (PEM)
//	private_key: "/etc/configgery/client.key"         - client private key (PEM)
//	log_level: "info"                                 - debug, info, warn or error
//	log_format: "console"                             - console or json
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FileName is the default name of the configuration file.
const FileName = ".configgery.yaml"

// customPath holds an optional custom config file path.
// When empty, Load() uses the default FileName.
var customPath string

// SetPath sets a custom config file path for Load() to use.
// Pass an empty string to reset to the default path.
func SetPath(path string) {
	customPath = path
}

// GetPath returns the current config file path.
func GetPath() string {
	if customPath != "" {
		return customPath
	}
	return FileName
}

var (
	urlPattern    = regexp.MustCompile(`^https?://[^\s]+$`)
	levelPattern  = regexp.MustCompile(`^(debug|info|warn|error)$`)
	formatPattern = regexp.MustCompile(`^(console|json)$`)
)

// Config represents the .configgery.yaml configuration file.
type Config struct {
	ServerURL   string `yaml:"server_url,omitempty"`
	Directory   string `yaml:"directory"`
	Certificate string `yaml:"certificate"`
	PrivateKey  string `yaml:"private_key"`
	LogLevel    string `yaml:"log_level,omitempty"`
	LogFormat   string `yaml:"log_format,omitempty"`
}

// Load reads and parses the configuration file, then applies environment
// overrides (CONFIGGERY_URL, CONFIGGERY_DIR, CONFIGGERY_CERT,
// CONFIGGERY_KEY).
func Load() (*Config, error) {
	return LoadFrom(GetPath())
}

// LoadFrom reads and parses a configuration file from a specific path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err // Return unwrapped for os.IsNotExist() checks
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CONFIGGERY_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("CONFIGGERY_DIR"); v != "" {
		c.Directory = v
	}
	if v := os.Getenv("CONFIGGERY_CERT"); v != "" {
		c.Certificate = v
	}
	if v := os.Getenv("CONFIGGERY_KEY"); v != "" {
		c.PrivateKey = v
	}
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	path := GetPath()
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	header := "# Generated by: configgery init\n\n"
	if err := os.WriteFile(path, []byte(header+string(data)), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	if c.ServerURL != "" && !urlPattern.MatchString(c.ServerURL) {
		return fmt.Errorf("server_url must be a valid HTTP(S) URL")
	}
	if c.Directory == "" {
		return fmt.Errorf("directory is required")
	}
	if c.Certificate == "" {
		return fmt.Errorf("certificate is required")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private_key is required")
	}
	if c.LogLevel != "" && !levelPattern.MatchString(c.LogLevel) {
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}
	if c.LogFormat != "" && !formatPattern.MatchString(c.LogFormat) {
		return fmt.Errorf("log_format must be console or json")
	}
	return nil
}
