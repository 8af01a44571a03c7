package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestScalePNG(t *testing.T) {
	data := encodeTestPNG(t, 800, 1000)

	scaled, err := scalePNG(data, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(scaled))
	if err != nil {
		t.Fatalf("decode scaled png: %v", err)
	}
	if img.Bounds().Dx() != 400 {
		t.Errorf("expected width 400, got %d", img.Bounds().Dx())
	}
	if img.Bounds().Dy() != 500 {
		t.Errorf("expected proportional height 500, got %d", img.Bounds().Dy())
	}
}

func TestScalePNGKeepsSmallImages(t *testing.T) {
	data := encodeTestPNG(t, 200, 300)

	scaled, err := scalePNG(data, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(scaled, data) {
		t.Error("images narrower than the limit must pass through unchanged")
	}
}

func TestWritePreviewsAndRead(t *testing.T) {
	dir := t.TempDir()
	pageDir := filepath.Join(dir, "pages")
	previewDir := filepath.Join(dir, "previews")
	if err := os.MkdirAll(pageDir, 0o755); err != nil {
		t.Fatal(err)
	}

	var paths []string
	for i := 0; i < 2; i++ {
		path := filepath.Join(pageDir, fmt.Sprintf("page-%d.png", i))
		if err := os.WriteFile(path, encodeTestPNG(t, 600, 800), 0o600); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	sys := NewSystem(slog.Default()).(*system)
	if err := sys.WritePreviews(paths, previewDir, 300); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		data, err := sys.Preview(previewDir, i)
		if err != nil {
			t.Fatalf("preview %d: %v", i, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decode preview %d: %v", i, err)
		}
		if img.Bounds().Dx() != 300 {
			t.Errorf("preview %d: expected width 300, got %d", i, img.Bounds().Dx())
		}
	}

	if _, err := sys.Preview(previewDir, 9); err == nil {
		t.Error("missing preview must return an error")
	}
}
