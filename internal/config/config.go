// Package config loads the service configuration from a base TOML file,
// an optional environment overlay selected by TALUSH_ENV, and TALUSH_*
// environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/oharel/talush/pkg/database"
)

type Config struct {
	Version         string          `toml:"version"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Server          ServerConfig    `toml:"server"`
	API             APIConfig       `toml:"api"`
	Database        database.Config `toml:"database"`
	SMTP            SMTPConfig      `toml:"smtp"`
	Vision          VisionConfig    `toml:"vision"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
}

type Env struct {
	Version         string
	ShutdownTimeout string
}

func DefaultEnv() Env {
	return Env{
		Version:         "TALUSH_VERSION",
		ShutdownTimeout: "TALUSH_SHUTDOWN_TIMEOUT",
	}
}

// DefaultDatabaseEnv maps database config fields to TALUSH_DB_* variables.
func DefaultDatabaseEnv() *database.Env {
	return &database.Env{
		Driver:      "TALUSH_DB_DRIVER",
		Host:        "TALUSH_DB_HOST",
		Port:        "TALUSH_DB_PORT",
		Name:        "TALUSH_DB_NAME",
		User:        "TALUSH_DB_USER",
		Password:    "TALUSH_DB_PASSWORD",
		SSLMode:     "TALUSH_DB_SSL_MODE",
		Path:        "TALUSH_DB_PATH",
		ConnTimeout: "TALUSH_DB_CONN_TIMEOUT",
	}
}

// Load reads path, merges config.<env>.toml from the same directory when
// TALUSH_ENV is set, then finalizes with environment overrides.
func Load(path string) (*Config, error) {
	c := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if env := os.Getenv("TALUSH_ENV"); env != "" {
		overlay := filepath.Join(
			filepath.Dir(path),
			fmt.Sprintf("config.%s.toml", env),
		)
		if data, err := os.ReadFile(overlay); err == nil {
			o := &Config{}
			if err := toml.Unmarshal(data, o); err != nil {
				return nil, fmt.Errorf("parse overlay %s: %w", overlay, err)
			}
			c.Merge(o)
		}
	}

	if err := c.Finalize(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv(DefaultEnv())

	if err := c.Server.Finalize(); err != nil {
		return err
	}
	if err := c.API.Finalize(); err != nil {
		return err
	}
	if err := c.Database.Finalize(DefaultDatabaseEnv()); err != nil {
		return err
	}
	if err := c.SMTP.Finalize(); err != nil {
		return err
	}
	if err := c.Vision.Finalize(); err != nil {
		return err
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return err
	}

	return c.validate()
}

func (c *Config) Merge(o *Config) {
	if o == nil {
		return
	}
	if o.Version != "" {
		c.Version = o.Version
	}
	if o.ShutdownTimeout != "" {
		c.ShutdownTimeout = o.ShutdownTimeout
	}
	c.Server.Merge(&o.Server)
	c.API.Merge(&o.API)
	c.Database.Merge(&o.Database)
	c.SMTP.Merge(&o.SMTP)
	c.Vision.Merge(&o.Vision)
	c.Pipeline.Merge(&o.Pipeline)
}

func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

func (c *Config) loadDefaults() {
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
}

func (c *Config) loadEnv(env Env) {
	if v := os.Getenv(env.Version); v != "" {
		c.Version = v
	}
	if v := os.Getenv(env.ShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}
