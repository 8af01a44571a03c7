package extraction

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/oharel/talush/internal/payslips"
	"github.com/oharel/talush/pkg/formatting"
)

// Completer sends one rendered page image with instructions to a vision
// model and returns the raw text response.
type Completer interface {
	Complete(ctx context.Context, png []byte, instructions string) (string, error)
}

// pageFields is the JSON shape the model is asked to return. Flex types
// absorb the model occasionally returning numbers as strings or strings
// as numbers.
type pageFields struct {
	Name       formatting.FlexString `json:"name"`
	EmployeeID formatting.FlexString `json:"employee_id"`
	Email      formatting.FlexString `json:"email"`
	Month      formatting.FlexInt    `json:"month"`
	Year       formatting.FlexInt    `json:"year"`
}

// VisionExtractor sends each page image to the model in parallel, bounded
// by workers. A failed page degrades to an empty record instead of
// failing the whole document.
type VisionExtractor struct {
	completer Completer
	prompt    string
	workers   int
	logger    *slog.Logger
}

func NewVisionExtractor(completer Completer, knownNames []string, workers int, logger *slog.Logger) *VisionExtractor {
	if workers < 1 {
		workers = 1
	}
	return &VisionExtractor{
		completer: completer,
		prompt:    buildPrompt(knownNames),
		workers:   workers,
		logger:    logger.With("extractor", "vision"),
	}
}

func (e *VisionExtractor) Name() string { return "vision" }

func (e *VisionExtractor) Extract(ctx context.Context, pages []Page) ([]payslips.Payslip, error) {
	slips := make([]payslips.Payslip, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, page := range pages {
		g.Go(func() error {
			slips[i] = e.extractPage(gctx, page)
			return nil
		})
	}

	// Workers never return errors; the group only propagates context
	// cancellation through gctx.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return slips, nil
}

func (e *VisionExtractor) extractPage(ctx context.Context, page Page) payslips.Payslip {
	slip := payslips.Payslip{
		PageIndex: page.Index,
		RawText:   page.Text,
	}

	png, err := os.ReadFile(page.ImagePath)
	if err != nil {
		e.logger.Error("read page image failed",
			"page", page.Index,
			"error", err)
		return slip
	}

	response, err := e.completer.Complete(ctx, png, e.prompt)
	if err != nil {
		e.logger.Error("vision request failed",
			"page", page.Index,
			"error", err)
		return slip
	}

	fields, err := formatting.Parse[pageFields](response)
	if err != nil {
		e.logger.Error("vision response parse failed",
			"page", page.Index,
			"error", err)
		return slip
	}

	slip.Name = fields.Name.Value
	slip.NationalID = formatting.Digits(fields.EmployeeID.Value)
	slip.Email = fields.Email.Value
	if fields.Month.Set {
		slip.Month = fields.Month.Value
	}
	if fields.Year.Set {
		slip.Year = fields.Year.Value
	}

	e.logger.Info("page extracted",
		"page", page.Index,
		"name", slip.Name,
		"complete", slip.IsComplete())

	return slip
}
