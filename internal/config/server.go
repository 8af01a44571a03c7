package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	ReadTimeout  string `toml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout"`
	IdleTimeout  string `toml:"idle_timeout"`
}

type ServerEnv struct {
	Host string
	Port string
}

func DefaultServerEnv() ServerEnv {
	return ServerEnv{
		Host: "TALUSH_SERVER_HOST",
		Port: "TALUSH_SERVER_PORT",
	}
}

func (s *ServerConfig) Finalize() error {
	s.loadDefaults()
	s.loadEnv(DefaultServerEnv())
	return s.validate()
}

func (s *ServerConfig) Merge(o *ServerConfig) {
	if o == nil {
		return
	}
	if o.Host != "" {
		s.Host = o.Host
	}
	if o.Port != 0 {
		s.Port = o.Port
	}
	if o.ReadTimeout != "" {
		s.ReadTimeout = o.ReadTimeout
	}
	if o.WriteTimeout != "" {
		s.WriteTimeout = o.WriteTimeout
	}
	if o.IdleTimeout != "" {
		s.IdleTimeout = o.IdleTimeout
	}
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) GetReadTimeout() time.Duration {
	return parseDuration(s.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout allows for long uploads that run vision extraction
// inline, so the default is generous.
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return parseDuration(s.WriteTimeout, 5*time.Minute)
}

func (s *ServerConfig) GetIdleTimeout() time.Duration {
	return parseDuration(s.IdleTimeout, 2*time.Minute)
}

func (s *ServerConfig) loadDefaults() {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == "" {
		s.ReadTimeout = "30s"
	}
	if s.WriteTimeout == "" {
		s.WriteTimeout = "5m"
	}
	if s.IdleTimeout == "" {
		s.IdleTimeout = "2m"
	}
}

func (s *ServerConfig) loadEnv(env ServerEnv) {
	if v := os.Getenv(env.Host); v != "" {
		s.Host = v
	}
	if v := os.Getenv(env.Port); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			s.Port = port
		}
	}
}

func (s *ServerConfig) validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", s.Port)
	}
	for _, d := range []string{s.ReadTimeout, s.WriteTimeout, s.IdleTimeout} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid server timeout %q: %w", d, err)
		}
	}
	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
