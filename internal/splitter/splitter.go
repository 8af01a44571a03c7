// Package splitter cuts the uploaded document into single-page PDFs and
// encrypts each one for its employee: the identity number opens the file
// and a derived owner password locks the permissions to print only.
package splitter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/oharel/talush/internal/payslips"
)

// Result describes one encrypted single-page artifact.
type Result struct {
	Filename string
	Path     string
	Payslip  payslips.Payslip
}

// Output collects the artifacts of one split run. Skipped counts payslips
// whose page index fell outside the document.
type Output struct {
	Results []Result
	Skipped int
}

type Splitter struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Splitter {
	return &Splitter{
		logger: logger.With("system", "splitter"),
	}
}

// Split writes one encrypted PDF per payslip into outputDir, in input
// order. Payslips referencing pages beyond the document are skipped with
// a warning rather than failing the batch.
func (s *Splitter) Split(ctx context.Context, sourcePath, outputDir string, slips []payslips.Payslip) (Output, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Output{}, fmt.Errorf("create output dir: %w", err)
	}

	pageCount, err := api.PageCountFile(sourcePath)
	if err != nil {
		return Output{}, fmt.Errorf("page count: %w", err)
	}

	out := Output{Results: make([]Result, 0, len(slips))}

	for _, slip := range slips {
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}

		if slip.PageIndex < 0 || slip.PageIndex >= pageCount {
			s.logger.Warn("page index outside document, skipping",
				"page", slip.PageIndex,
				"pages", pageCount)
			out.Skipped++
			continue
		}

		result, err := s.splitPage(sourcePath, outputDir, slip)
		if err != nil {
			return Output{}, err
		}
		out.Results = append(out.Results, result)
	}

	return out, nil
}

func (s *Splitter) splitPage(sourcePath, outputDir string, slip payslips.Payslip) (Result, error) {
	filename := SanitizeFilename(slip.DisplayFilename())
	outputPath := filepath.Join(outputDir, filename)

	plainPath := outputPath + ".tmp"
	pages := []string{strconv.Itoa(slip.PageIndex + 1)}

	if err := api.TrimFile(sourcePath, plainPath, pages, nil); err != nil {
		return Result{}, fmt.Errorf("extract page %d: %w", slip.PageIndex, err)
	}
	defer os.Remove(plainPath)

	userPassword := slip.NationalID
	ownerPassword := OwnerPassword(slip.NationalID)

	conf := model.NewAESConfiguration(userPassword, ownerPassword, 256)
	conf.Permissions = model.PermissionsPrint

	if err := api.EncryptFile(plainPath, outputPath, conf); err != nil {
		return Result{}, fmt.Errorf("encrypt page %d: %w", slip.PageIndex, err)
	}

	s.logger.Info("page split and encrypted",
		"page", slip.PageIndex,
		"filename", filename,
		"locked", userPassword != "")

	return Result{
		Filename: filename,
		Path:     outputPath,
		Payslip:  slip,
	}, nil
}
