// Package pipeline orchestrates the payslip flow: upload and extract,
// review, split and encrypt, deliver, and record. It owns the review
// sessions and wires the extraction strategies, the directory, the
// splitter and the dispatcher together.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/oharel/talush/internal/batches"
	"github.com/oharel/talush/internal/config"
	"github.com/oharel/talush/internal/delivery"
	"github.com/oharel/talush/internal/employees"
	"github.com/oharel/talush/internal/extraction"
	"github.com/oharel/talush/internal/payslips"
	"github.com/oharel/talush/internal/render"
	"github.com/oharel/talush/internal/session"
	"github.com/oharel/talush/internal/splitter"
)

const (
	MethodVision  = "vision"
	MethodPattern = "pattern"
)

type System struct {
	pipeline  config.PipelineConfig
	vision    config.VisionConfig
	sessions  *session.Store
	employees employees.System
	batches   batches.System
	render    render.System
	splitter  *splitter.Splitter
	dispatch  *delivery.Dispatcher
	completer extraction.Completer
	logger    *slog.Logger
}

// Options carries the collaborators for New. Completer may be nil, which
// disables vision extraction and falls back to pattern matching.
type Options struct {
	Pipeline  config.PipelineConfig
	Vision    config.VisionConfig
	Sessions  *session.Store
	Employees employees.System
	Batches   batches.System
	Render    render.System
	Splitter  *splitter.Splitter
	Dispatch  *delivery.Dispatcher
	Completer extraction.Completer
}

func New(opts Options, logger *slog.Logger) *System {
	return &System{
		pipeline:  opts.Pipeline,
		vision:    opts.Vision,
		sessions:  opts.Sessions,
		employees: opts.Employees,
		batches:   opts.Batches,
		render:    opts.Render,
		splitter:  opts.Splitter,
		dispatch:  opts.Dispatch,
		completer: opts.Completer,
		logger:    logger.With("system", "pipeline"),
	}
}

func (s *System) Handler(maxUploadSize int64) *Handler {
	return NewHandler(s, s.logger, maxUploadSize)
}

// Method reports the active extraction strategy.
func (s *System) Method() string {
	if s.completer != nil {
		return MethodVision
	}
	return MethodPattern
}

// UploadCommand is an incoming document.
type UploadCommand struct {
	Filename string
	Data     []byte
}

// UploadResult is the review payload for a fresh session.
type UploadResult struct {
	SessionID string     `json:"session_id"`
	Method    string     `json:"extraction_method"`
	PageCount int        `json:"page_count"`
	Pages     []PageView `json:"pages"`
}

// Upload saves the document, extracts a payslip per page, backfills
// emails from the directory, applies the corrections table, caches page
// previews and opens a review session.
func (s *System) Upload(ctx context.Context, cmd UploadCommand) (*UploadResult, error) {
	if len(cmd.Data) == 0 || cmd.Filename == "" {
		return nil, ErrEmptyUpload
	}
	if !isPDF(cmd.Filename) {
		return nil, ErrInvalidUpload
	}

	sess, err := s.openSession(ctx, cmd)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{
		SessionID: sess.ID,
		Method:    sess.Method,
		PageCount: sess.PageCount,
		Pages:     s.pageViews(ctx, sess.Slips),
	}
	return result, nil
}

// openSession performs the extraction half of an upload and registers
// the session. On any failure the session directory is removed.
func (s *System) openSession(ctx context.Context, cmd UploadCommand) (*session.Session, error) {
	id := s.sessions.NewID()
	dir := filepath.Join(s.pipeline.UploadDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	cleanup := func() { os.RemoveAll(dir) }

	pdfPath := filepath.Join(dir, splitter.SanitizeFilename(filepath.Base(cmd.Filename)))
	if err := os.WriteFile(pdfPath, cmd.Data, 0o600); err != nil {
		cleanup()
		return nil, fmt.Errorf("save upload: %w", err)
	}

	pageCount, err := s.render.PageCount(pdfPath)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if pageCount == 0 {
		cleanup()
		return nil, ErrNoPayslips
	}

	pages, previewDir, err := s.preparePages(ctx, pdfPath, dir, pageCount)
	if err != nil {
		cleanup()
		return nil, err
	}

	extractor, err := s.extractor(ctx)
	if err != nil {
		cleanup()
		return nil, err
	}

	slips, err := extractor.Extract(ctx, pages)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	s.backfillEmails(ctx, slips)
	extraction.Corrections(s.pipeline.Corrections).Apply(slips, s.logger)

	sess := &session.Session{
		ID:               id,
		Dir:              dir,
		PDFPath:          pdfPath,
		PreviewDir:       previewDir,
		OriginalFilename: cmd.Filename,
		Method:           extractor.Name(),
		PageCount:        pageCount,
		Slips:            slips,
	}
	s.sessions.Put(sess)

	s.logger.Info("upload extracted",
		"session", id,
		"filename", cmd.Filename,
		"pages", pageCount,
		"method", sess.Method)

	return sess, nil
}

// preparePages extracts page text and renders page images. Rendering is
// best-effort for pattern extraction but mandatory for vision; previews
// are always best-effort.
func (s *System) preparePages(ctx context.Context, pdfPath, dir string, pageCount int) ([]extraction.Page, string, error) {
	texts, err := extraction.PageTexts(pdfPath)
	if err != nil {
		s.logger.Warn("text extraction failed", "error", err)
		texts = nil
	}

	pagePaths, err := s.render.RenderPages(ctx, pdfPath, filepath.Join(dir, "pages"))
	if err != nil {
		if s.completer != nil {
			return nil, "", fmt.Errorf("%w: render pages: %w", ErrExtraction, err)
		}
		s.logger.Warn("page rendering failed, previews unavailable", "error", err)
		pagePaths = nil
	}

	previewDir := filepath.Join(dir, "previews")
	if pagePaths != nil {
		if err := s.render.WritePreviews(pagePaths, previewDir, s.pipeline.PreviewMaxWidth); err != nil {
			s.logger.Warn("preview generation failed", "error", err)
		}
	}

	pages := make([]extraction.Page, pageCount)
	for i := range pages {
		pages[i].Index = i
		if i < len(texts) {
			pages[i].Text = texts[i]
		}
		if i < len(pagePaths) {
			pages[i].ImagePath = pagePaths[i]
		}
	}
	return pages, previewDir, nil
}

func (s *System) extractor(ctx context.Context) (extraction.Extractor, error) {
	if s.completer == nil {
		return extraction.NewPatternExtractor(s.logger), nil
	}

	known, err := s.employees.KnownNames(ctx)
	if err != nil {
		s.logger.Warn("known names lookup failed", "error", err)
		known = nil
	}
	return extraction.NewVisionExtractor(s.completer, known, s.vision.MaxConcurrent, s.logger), nil
}

func isPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// backfillEmails fills missing addresses from the directory by identity
// number.
func (s *System) backfillEmails(ctx context.Context, slips []payslips.Payslip) {
	for i := range slips {
		if slips[i].Email != "" || slips[i].NationalID == "" {
			continue
		}
		e, err := s.employees.FindByNationalID(ctx, slips[i].NationalID)
		if err != nil || e.Email == "" {
			continue
		}
		slips[i].Email = e.Email
		s.logger.Debug("email backfilled from directory",
			"page", slips[i].PageIndex,
			"national_id", slips[i].NationalID)
	}
}
