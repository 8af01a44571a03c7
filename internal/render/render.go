// Package render rasterizes payslip pages through ImageMagick and builds
// the cached preview thumbnails the review screen serves. The source PDF
// is opened exactly once per render pass; page images for both vision
// extraction and previews come out of that single pass.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	dcconfig "github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	dcimage "github.com/JaimeStill/document-context/pkg/image"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// System abstracts rendering so the pipeline can be tested without an
// ImageMagick installation.
type System interface {
	PageCount(path string) (int, error)
	RenderPages(ctx context.Context, pdfPath, dir string) ([]string, error)
	WritePreviews(pagePaths []string, dir string, maxWidth int) error
	Preview(dir string, pageIndex int) ([]byte, error)
}

type system struct {
	logger *slog.Logger
}

func NewSystem(logger *slog.Logger) System {
	return &system{
		logger: logger.With("system", "render"),
	}
}

// PageCount reads the page count without rasterizing.
func (s *system) PageCount(path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return count, nil
}

// RenderPages rasterizes every page to PNG files page-<index>.png under
// dir and returns the paths in page order. Pages render sequentially;
// the underlying document handle is not safe for concurrent use.
func (s *system) RenderPages(ctx context.Context, pdfPath, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create render dir: %w", err)
	}

	doc, err := document.OpenPDF(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	renderer, err := dcimage.NewImageMagickRenderer(dcconfig.DefaultImageConfig())
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	pages, err := doc.ExtractAllPages()
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}

	paths := make([]string, len(pages))
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := page.ToImage(renderer, nil)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("page-%d.png", i))
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return nil, fmt.Errorf("write page %d image: %w", i, err)
		}
		paths[i] = path
	}

	s.logger.Debug("pages rendered", "count", len(paths), "dir", dir)
	return paths, nil
}

// Preview reads a cached preview thumbnail by zero-based page index.
func (s *system) Preview(dir string, pageIndex int) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("%d.png", pageIndex)))
	if err != nil {
		return nil, fmt.Errorf("read preview %d: %w", pageIndex, err)
	}
	return data, nil
}
