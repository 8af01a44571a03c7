package pipeline

import (
	"errors"
	"net/http"
	"strings"

	"github.com/oharel/talush/internal/batches"
)

// Domain errors for pipeline operations.
var (
	ErrSessionNotFound = errors.New("session expired or not found")
	ErrInvalidUpload   = errors.New("upload must be a PDF file")
	ErrEmptyUpload     = errors.New("no file uploaded")
	ErrNoPayslips      = errors.New("no payslips found in document")
	ErrExtraction      = errors.New("extraction failed")
	ErrSplit           = errors.New("split and encrypt failed")
	ErrArtifactMissing = errors.New("encrypted artifact not found, reprocess the batch")
	ErrNoEmail         = errors.New("no email address on record")
	ErrPreviewMissing  = errors.New("preview unavailable")
)

// ValidationError collects the per-page review problems that block
// processing. Messages are in Hebrew, matching what reviewers see.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, " | ")
}

// MapHTTPStatus maps pipeline domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrArtifactMissing) ||
		errors.Is(err, ErrPreviewMissing) || errors.Is(err, batches.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidUpload) || errors.Is(err, ErrEmptyUpload) ||
		errors.Is(err, ErrNoPayslips) || errors.Is(err, ErrNoEmail) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
