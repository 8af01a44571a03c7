package pipeline

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/oharel/talush/internal/extraction"
	"github.com/oharel/talush/pkg/handlers"
	"github.com/oharel/talush/pkg/routes"
)

// uploadField is the multipart form field carrying the document.
const uploadField = "pdf_file"

// Handler provides the HTTP surface of the pipeline: uploads, review,
// processing, one-shot runs and delivery retries.
type Handler struct {
	sys           *System
	logger        *slog.Logger
	maxUploadSize int64
}

func NewHandler(sys *System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "pipeline"),
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/uploads",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: h.Upload},
					{Method: "GET", Pattern: "/{id}", Handler: h.Review},
					{Method: "GET", Pattern: "/{id}/pages/{page}", Handler: h.PagePreview},
					{Method: "POST", Pattern: "/{id}/process", Handler: h.Process},
				},
			},
			{
				Prefix: "/runs",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: h.Run},
				},
			},
			{
				Prefix: "/records",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{id}/retry", Handler: h.Retry},
				},
			},
		},
	}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	cmd, _, err := h.readUpload(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Upload(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, result)
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Review(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) PagePreview(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	data, err := h.sys.PagePreview(r.PathValue("id"), page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("write preview failed", "error", err)
	}
}

// ProcessRequest carries the reviewer overrides for a session, keyed by
// one-based page number.
type ProcessRequest struct {
	Overrides extraction.Overrides `json:"overrides"`
}

func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Process(r.Context(), r.PathValue("id"), req.Overrides)
	if err != nil {
		h.respondProcessError(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	cmd, form, err := h.readUpload(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	var overrides extraction.Overrides
	if raw := form.Get("overrides"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
	}

	result, err := h.sys.Run(r.Context(), cmd, overrides)
	if err != nil {
		h.respondProcessError(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	outcome, err := h.sys.Retry(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, outcome)
}

// respondProcessError gives validation failures a structured body so the
// review screen can show per-page messages.
func (h *Handler) respondProcessError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		h.logger.Error("request failed", "status", http.StatusUnprocessableEntity, "error", err)
		handlers.RespondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": "validation failed",
			"pages": verr.Messages,
		})
		return
	}
	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}

// readUpload parses the multipart form and reads the uploaded document.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (UploadCommand, url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return UploadCommand{}, nil, ErrEmptyUpload
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return UploadCommand{}, nil, ErrEmptyUpload
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return UploadCommand{}, nil, err
	}

	return UploadCommand{Filename: header.Filename, Data: data}, r.Form, nil
}
