package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// WritePreviews scales the rendered page images down to maxWidth and
// caches them under dir as <index>.png, zero-based. Already rendered
// pages are reused; the PDF is never reopened.
func (s *system) WritePreviews(pagePaths []string, dir string, maxWidth int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}

	for i, src := range pagePaths {
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("read page %d image: %w", i, err)
		}

		thumb, err := scalePNG(data, maxWidth)
		if err != nil {
			return fmt.Errorf("scale page %d: %w", i, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("%d.png", i))
		if err := os.WriteFile(path, thumb, 0o600); err != nil {
			return fmt.Errorf("write preview %d: %w", i, err)
		}
	}

	s.logger.Debug("previews cached", "count", len(pagePaths), "dir", dir)
	return nil
}

func scalePNG(data []byte, maxWidth int) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() <= maxWidth {
		return data, nil
	}

	height := bounds.Dy() * maxWidth / bounds.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
