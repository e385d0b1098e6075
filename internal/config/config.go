package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Partition sources
const (
	SourceSlurm = "slurm"
	SourceNomad = "nomad"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig  `koanf:"server"`
	Cache    CacheConfig   `koanf:"cache"`
	Refresh  RefreshConfig `koanf:"refresh"`
	LogLevel string        `koanf:"log_level"`
	Source   string        `koanf:"source"` // slurm | nomad
	Slurm    SlurmConfig   `koanf:"slurm"`
	Nomad    NomadConfig   `koanf:"nomad"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	BasePath     string        `koanf:"base_path"` // Optional base path for reverse proxy (e.g., "/partview")
}

// CacheConfig represents snapshot cache configuration
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// RefreshConfig controls how often each view polls for a new snapshot
type RefreshConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// SlurmConfig represents the slurmrestd endpoint
type SlurmConfig struct {
	Address    string        `koanf:"address"`
	APIVersion string        `koanf:"api_version"`
	User       string        `koanf:"user"`
	Token      string        `koanf:"token"`
	Timeout    time.Duration `koanf:"timeout"`
	TLS        *TLSConfig    `koanf:"tls"`
}

// NomadConfig represents the Nomad cluster whose node pools are shown as partitions
type NomadConfig struct {
	Address string     `koanf:"address"`
	Region  string     `koanf:"region"`
	TLS     *TLSConfig `koanf:"tls"`
}

// TLSConfig represents TLS configuration for an upstream client.
// Cert and Key are optional; when empty only the CA is used.
type TLSConfig struct {
	CA   string `koanf:"ca"`
	Cert string `koanf:"cert"`
	Key  string `koanf:"key"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Load YAML config
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills in settings left empty in the file
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 2 * time.Second
	}
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = 5 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Source == "" {
		c.Source = SourceSlurm
	}
	if c.Slurm.APIVersion == "" {
		c.Slurm.APIVersion = "v0.0.40"
	}
	if c.Slurm.Timeout == 0 {
		c.Slurm.Timeout = 30 * time.Second
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive")
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	switch c.Source {
	case SourceSlurm:
		if c.Slurm.Address == "" {
			return fmt.Errorf("slurm.address is required when source is slurm")
		}
		if c.Slurm.APIVersion == "" {
			return fmt.Errorf("slurm.api_version is required")
		}
		if err := c.Slurm.TLS.validate("slurm.tls"); err != nil {
			return err
		}
	case SourceNomad:
		if c.Nomad.Address == "" {
			return fmt.Errorf("nomad.address is required when source is nomad")
		}
		if err := c.Nomad.TLS.validate("nomad.tls"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("source must be %q or %q, got %q", SourceSlurm, SourceNomad, c.Source)
	}

	return nil
}

func (t *TLSConfig) validate(key string) error {
	if t == nil {
		return nil
	}
	if t.CA == "" {
		return fmt.Errorf("%s.ca is required", key)
	}
	if (t.Cert == "") != (t.Key == "") {
		return fmt.Errorf("%s.cert and %s.key must be set together", key, key)
	}
	return nil
}
