// Package extraction turns the pages of an uploaded payslip document into
// per-page payslip records. Two strategies implement the same interface:
// pattern matching over extracted page text, and vision extraction that
// sends rendered page images to a language model.
package extraction

import (
	"context"

	"github.com/oharel/talush/internal/payslips"
)

// Page is one prepared page of the source document. Text is always
// populated when the document carries a text layer; ImagePath is set only
// when the pipeline rendered pages for vision extraction.
type Page struct {
	Index     int
	Text      string
	ImagePath string
}

type Extractor interface {
	// Name identifies the strategy in logs and review payloads.
	Name() string

	// Extract produces exactly one payslip per input page, in page
	// order. A page that yields nothing still produces a record with
	// empty fields.
	Extract(ctx context.Context, pages []Page) ([]payslips.Payslip, error)
}
