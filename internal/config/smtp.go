package config

import (
	"fmt"
	"os"
	"strconv"
)

// SMTPConfig carries the outgoing mail settings. Delivery is attempted
// whenever Enabled reports true; otherwise every send is recorded as
// failed without contacting a server.
type SMTPConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	SenderEmail string `toml:"sender_email"`
	SenderName  string `toml:"sender_name"`
}

type SMTPEnv struct {
	Host     string
	Port     string
	Username string
	Password string
}

func DefaultSMTPEnv() SMTPEnv {
	return SMTPEnv{
		Host:     "TALUSH_SMTP_HOST",
		Port:     "TALUSH_SMTP_PORT",
		Username: "TALUSH_SMTP_USERNAME",
		Password: "TALUSH_SMTP_PASSWORD",
	}
}

func (s *SMTPConfig) Finalize() error {
	s.loadDefaults()
	s.loadEnv(DefaultSMTPEnv())
	return s.validate()
}

func (s *SMTPConfig) Merge(o *SMTPConfig) {
	if o == nil {
		return
	}
	if o.Host != "" {
		s.Host = o.Host
	}
	if o.Port != 0 {
		s.Port = o.Port
	}
	if o.Username != "" {
		s.Username = o.Username
	}
	if o.Password != "" {
		s.Password = o.Password
	}
	if o.SenderEmail != "" {
		s.SenderEmail = o.SenderEmail
	}
	if o.SenderName != "" {
		s.SenderName = o.SenderName
	}
}

func (s *SMTPConfig) Enabled() bool {
	return s.Username != "" && s.Password != ""
}

func (s *SMTPConfig) loadDefaults() {
	if s.Host == "" {
		s.Host = "smtp.gmail.com"
	}
	if s.Port == 0 {
		s.Port = 587
	}
}

func (s *SMTPConfig) loadEnv(env SMTPEnv) {
	if v := os.Getenv(env.Host); v != "" {
		s.Host = v
	}
	if v := os.Getenv(env.Port); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			s.Port = port
		}
	}
	if v := os.Getenv(env.Username); v != "" {
		s.Username = v
	}
	if v := os.Getenv(env.Password); v != "" {
		s.Password = v
	}
}

func (s *SMTPConfig) validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid smtp port: %d", s.Port)
	}
	return nil
}

// Sender resolves the From address, falling back to the SMTP username.
func (s *SMTPConfig) Sender() string {
	if s.SenderEmail != "" {
		return s.SenderEmail
	}
	return s.Username
}
