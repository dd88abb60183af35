package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Config represents the kraken-api-agent configuration
type Config struct {
	Web struct {
		Port        int    `yaml:"port"`
		BindAddress string `yaml:"bind_address"`
		HTMLDir     string `yaml:"html_dir"`
		AllowCORS   bool   `yaml:"allow_cors"`
		DebugHTTP   bool   `yaml:"debug_http"`
	} `yaml:"web"`

	Settings struct {
		// Dir is the krakensdr_doa _share directory holding settings.json.
		Dir string `yaml:"dir"`
	} `yaml:"settings"`

	Telemetry struct {
		URL              string `yaml:"url"`
		TimeoutMs        int    `yaml:"timeout_ms"`
		StreamIntervalMs int    `yaml:"stream_interval_ms"`
	} `yaml:"telemetry"`

	Security struct {
		// AllowedIPs restricts which clients may talk to the agent.
		// Empty means any.
		AllowedIPs []string `yaml:"allowed_ips"`
	} `yaml:"security"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		Console    bool   `yaml:"console"`
		Structured bool   `yaml:"structured"`
		MaxSize    int    `yaml:"max_size"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`
}

// Default returns the configuration the agent runs with when no config file
// is given. The paths and ports match a stock krakensdr_doa install.
func Default() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Web.Port == 0 {
		c.Web.Port = 8181
	}
	if c.Web.BindAddress == "" {
		c.Web.BindAddress = "0.0.0.0"
	}
	if c.Settings.Dir == "" {
		c.Settings.Dir = "/home/krakenrf/krakensdr_doa/krakensdr_doa/_share"
	}
	if c.Telemetry.URL == "" {
		c.Telemetry.URL = "http://localhost:8081/DOA_value.html"
	}
	if c.Telemetry.TimeoutMs == 0 {
		c.Telemetry.TimeoutMs = 5000
	}
	if c.Telemetry.StreamIntervalMs == 0 {
		c.Telemetry.StreamIntervalMs = 1000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSize == 0 {
		c.Logging.MaxSize = 100
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 5
	}
	if c.Logging.MaxAge == 0 {
		c.Logging.MaxAge = 30
	}
}

// SettingsFile returns the full path to settings.json.
func (c *Config) SettingsFile() string {
	return filepath.Join(c.Settings.Dir, "settings.json")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web port %d is out of range", c.Web.Port)
	}
	if _, err := os.Stat(c.SettingsFile()); err != nil {
		return fmt.Errorf("settings.json not found at %s, set settings.dir to the krakensdr_doa _share directory", c.SettingsFile())
	}
	for _, ip := range c.Security.AllowedIPs {
		if net.ParseIP(ip) == nil {
			return fmt.Errorf("allowed_ips entry %q is not a valid IP address", ip)
		}
	}
	return nil
}
