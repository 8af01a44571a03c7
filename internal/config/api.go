package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/oharel/talush/pkg/formatting"
	"github.com/oharel/talush/pkg/middleware"
)

type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
}

type APIEnv struct {
	BasePath      string
	MaxUploadSize string
}

func DefaultAPIEnv() APIEnv {
	return APIEnv{
		BasePath:      "TALUSH_API_BASE_PATH",
		MaxUploadSize: "TALUSH_API_MAX_UPLOAD_SIZE",
	}
}

func (a *APIConfig) Finalize() error {
	a.loadDefaults()
	a.loadEnv(DefaultAPIEnv())
	corsEnv := &middleware.CORSEnv{
		Enabled: "TALUSH_CORS_ENABLED",
		Origins: "TALUSH_CORS_ORIGINS",
	}
	if err := a.CORS.Finalize(corsEnv); err != nil {
		return err
	}
	return a.validate()
}

func (a *APIConfig) Merge(o *APIConfig) {
	if o == nil {
		return
	}
	if o.BasePath != "" {
		a.BasePath = o.BasePath
	}
	if o.MaxUploadSize != "" {
		a.MaxUploadSize = o.MaxUploadSize
	}
	a.CORS.Merge(&o.CORS)
}

func (a *APIConfig) GetMaxUploadSize() int64 {
	size, err := formatting.ParseBytes(a.MaxUploadSize)
	if err != nil {
		return 50 << 20
	}
	return size
}

func (a *APIConfig) loadDefaults() {
	if a.BasePath == "" {
		a.BasePath = "/api"
	}
	if a.MaxUploadSize == "" {
		a.MaxUploadSize = "50MB"
	}
}

func (a *APIConfig) loadEnv(env APIEnv) {
	if v := os.Getenv(env.BasePath); v != "" {
		a.BasePath = v
	}
	if v := os.Getenv(env.MaxUploadSize); v != "" {
		a.MaxUploadSize = v
	}
}

func (a *APIConfig) validate() error {
	if !strings.HasPrefix(a.BasePath, "/") {
		return fmt.Errorf("api base_path must start with /: %q", a.BasePath)
	}
	if _, err := formatting.ParseBytes(a.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	return nil
}
