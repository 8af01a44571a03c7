package batches

import (
	"errors"
	"net/http"
)

// Domain errors for batch and record operations.
var (
	ErrNotFound       = errors.New("record not found")
	ErrBatchNotFound  = errors.New("batch not found")
	ErrDuplicate      = errors.New("record already exists")
	ErrInvalidHistory = errors.New("invalid history limit")
)

// MapHTTPStatus maps batch domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrBatchNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidHistory) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
