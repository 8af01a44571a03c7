package api

import (
	"github.com/oharel/talush/internal/batches"
	"github.com/oharel/talush/internal/config"
	"github.com/oharel/talush/internal/delivery"
	"github.com/oharel/talush/internal/employees"
	"github.com/oharel/talush/internal/extraction"
	"github.com/oharel/talush/internal/pipeline"
	"github.com/oharel/talush/internal/render"
	"github.com/oharel/talush/internal/splitter"
	"github.com/oharel/talush/internal/vision"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Employees employees.System
	Batches   batches.System
	Pipeline  *pipeline.System
}

// NewDomain creates all domain systems from the API runtime. The vision
// extractor is only wired when an API key is configured; likewise a
// missing SMTP configuration turns every delivery into a recorded failure
// rather than disabling the pipeline.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	employeesSystem := employees.New(db, runtime.Logger)
	batchesSystem := batches.New(db, runtime.Logger)

	var mailer delivery.Mailer = delivery.DisabledMailer()
	if cfg.SMTP.Enabled() {
		mailer = delivery.NewSMTPMailer(cfg.SMTP)
	}

	var completer extraction.Completer
	if cfg.Vision.Enabled() {
		completer = vision.NewClient(cfg.Vision, runtime.Logger)
	}

	pipelineSystem := pipeline.New(pipeline.Options{
		Pipeline:  cfg.Pipeline,
		Vision:    cfg.Vision,
		Sessions:  runtime.Sessions,
		Employees: employeesSystem,
		Batches:   batchesSystem,
		Render:    render.NewSystem(runtime.Logger),
		Splitter:  splitter.New(runtime.Logger),
		Dispatch:  delivery.NewDispatcher(mailer, cfg.SMTP.SenderName, runtime.Logger),
		Completer: completer,
	}, runtime.Logger)

	return &Domain{
		Employees: employeesSystem,
		Batches:   batchesSystem,
		Pipeline:  pipelineSystem,
	}
}
