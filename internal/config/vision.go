package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// VisionConfig controls the AI-assisted extraction strategy. When no API
// key is configured the pipeline falls back to pattern extraction.
type VisionConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	MaxTokens      int    `toml:"max_tokens"`
	MaxConcurrent  int    `toml:"max_concurrent"`
	RequestTimeout string `toml:"request_timeout"`
}

type VisionEnv struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxConcurrent string
}

func DefaultVisionEnv() VisionEnv {
	return VisionEnv{
		APIKey:        "TALUSH_VISION_API_KEY",
		BaseURL:       "TALUSH_VISION_BASE_URL",
		Model:         "TALUSH_VISION_MODEL",
		MaxConcurrent: "TALUSH_VISION_MAX_CONCURRENT",
	}
}

func (v *VisionConfig) Finalize() error {
	v.loadDefaults()
	v.loadEnv(DefaultVisionEnv())
	return v.validate()
}

func (v *VisionConfig) Merge(o *VisionConfig) {
	if o == nil {
		return
	}
	if o.APIKey != "" {
		v.APIKey = o.APIKey
	}
	if o.BaseURL != "" {
		v.BaseURL = o.BaseURL
	}
	if o.Model != "" {
		v.Model = o.Model
	}
	if o.MaxTokens != 0 {
		v.MaxTokens = o.MaxTokens
	}
	if o.MaxConcurrent != 0 {
		v.MaxConcurrent = o.MaxConcurrent
	}
	if o.RequestTimeout != "" {
		v.RequestTimeout = o.RequestTimeout
	}
}

func (v *VisionConfig) Enabled() bool {
	return v.APIKey != ""
}

func (v *VisionConfig) GetRequestTimeout() time.Duration {
	return parseDuration(v.RequestTimeout, 2*time.Minute)
}

func (v *VisionConfig) loadDefaults() {
	if v.BaseURL == "" {
		v.BaseURL = "https://api.anthropic.com"
	}
	if v.Model == "" {
		v.Model = "claude-sonnet-4-5"
	}
	if v.MaxTokens == 0 {
		v.MaxTokens = 500
	}
	if v.MaxConcurrent == 0 {
		v.MaxConcurrent = 4
	}
	if v.RequestTimeout == "" {
		v.RequestTimeout = "2m"
	}
}

func (v *VisionConfig) loadEnv(env VisionEnv) {
	if val := os.Getenv(env.APIKey); val != "" {
		v.APIKey = val
	}
	if val := os.Getenv(env.BaseURL); val != "" {
		v.BaseURL = val
	}
	if val := os.Getenv(env.Model); val != "" {
		v.Model = val
	}
	if val := os.Getenv(env.MaxConcurrent); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			v.MaxConcurrent = n
		}
	}
}

func (v *VisionConfig) validate() error {
	if v.MaxTokens < 1 {
		return fmt.Errorf("vision max_tokens must be positive: %d", v.MaxTokens)
	}
	if v.MaxConcurrent < 1 {
		return fmt.Errorf("vision max_concurrent must be positive: %d", v.MaxConcurrent)
	}
	if _, err := time.ParseDuration(v.RequestTimeout); err != nil {
		return fmt.Errorf("invalid vision request_timeout: %w", err)
	}
	return nil
}
