// Package config holds the startup configuration. Values come from built-in
// defaults, then environment variables, then an optional YAML file, then
// command-line flags (applied by the cmd layer). The configuration is
// read-only once the server starts.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Site   SiteConfig   `yaml:"site"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig controls the listener and per-connection limits.
type ServerConfig struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`

	// ReadTimeout bounds how long a worker waits for request bytes; a
	// stalled client is reclaimed when it expires.
	ReadTimeout Duration `yaml:"read_timeout" validate:"gt=0"`

	// MaxConns caps concurrently served connections.
	MaxConns int `yaml:"max_conns" validate:"min=1"`
}

// SiteConfig describes the content being served.
type SiteConfig struct {
	// Root is the document root; everything servable lives below it.
	Root string `yaml:"root" validate:"required"`

	// DefaultDoc is served for directory targets.
	DefaultDoc string `yaml:"default_doc" validate:"required,excludes=/"`
}

var validate = validator.New()

// Load returns the defaults overlaid with environment variables and, when
// path is non-empty, with the YAML file at path.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvInt("SERVER_PORT", 8080),
			ReadTimeout: Duration(10 * time.Second),
			MaxConns:    256,
		},
		Site: SiteConfig{
			Root:       getEnv("DOCUMENT_ROOT", "www"),
			DefaultDoc: "index.html",
		},
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct-tag constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ListenAddr returns the host:port the listener binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
