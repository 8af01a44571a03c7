package config

import (
	"fmt"
	"os"
	"time"
)

// PipelineConfig holds directories and tuning for the payslip pipeline.
// Corrections maps a field name (name, national_id, email) to a table of
// known mis-extracted values and their replacements, applied to every
// extraction result before review.
type PipelineConfig struct {
	UploadDir       string                       `toml:"upload_dir"`
	OutputDir       string                       `toml:"output_dir"`
	SessionTTL      string                       `toml:"session_ttl"`
	PreviewMaxWidth int                          `toml:"preview_max_width"`
	Corrections     map[string]map[string]string `toml:"corrections"`
}

type PipelineEnv struct {
	UploadDir string
	OutputDir string
}

func DefaultPipelineEnv() PipelineEnv {
	return PipelineEnv{
		UploadDir: "TALUSH_PIPELINE_UPLOAD_DIR",
		OutputDir: "TALUSH_PIPELINE_OUTPUT_DIR",
	}
}

func (p *PipelineConfig) Finalize() error {
	p.loadDefaults()
	p.loadEnv(DefaultPipelineEnv())
	return p.validate()
}

func (p *PipelineConfig) Merge(o *PipelineConfig) {
	if o == nil {
		return
	}
	if o.UploadDir != "" {
		p.UploadDir = o.UploadDir
	}
	if o.OutputDir != "" {
		p.OutputDir = o.OutputDir
	}
	if o.SessionTTL != "" {
		p.SessionTTL = o.SessionTTL
	}
	if o.PreviewMaxWidth != 0 {
		p.PreviewMaxWidth = o.PreviewMaxWidth
	}
	if o.Corrections != nil {
		p.Corrections = o.Corrections
	}
}

func (p *PipelineConfig) GetSessionTTL() time.Duration {
	return parseDuration(p.SessionTTL, time.Hour)
}

func (p *PipelineConfig) loadDefaults() {
	if p.UploadDir == "" {
		p.UploadDir = "uploads"
	}
	if p.OutputDir == "" {
		p.OutputDir = "output"
	}
	if p.SessionTTL == "" {
		p.SessionTTL = "1h"
	}
	if p.PreviewMaxWidth == 0 {
		p.PreviewMaxWidth = 400
	}
}

func (p *PipelineConfig) loadEnv(env PipelineEnv) {
	if v := os.Getenv(env.UploadDir); v != "" {
		p.UploadDir = v
	}
	if v := os.Getenv(env.OutputDir); v != "" {
		p.OutputDir = v
	}
}

func (p *PipelineConfig) validate() error {
	if _, err := time.ParseDuration(p.SessionTTL); err != nil {
		return fmt.Errorf("invalid session_ttl: %w", err)
	}
	if p.PreviewMaxWidth < 1 {
		return fmt.Errorf("preview_max_width must be positive: %d", p.PreviewMaxWidth)
	}
	return nil
}
