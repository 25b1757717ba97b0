package snapshot

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestFlipRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	for y := 0; y < 3; y++ {
		img.SetRGBA(0, y, color.RGBA{R: uint8(y), A: 255})
	}
	FlipRows(img)
	for y := 0; y < 3; y++ {
		if got := img.RGBAAt(0, y).R; got != uint8(2-y) {
			t.Errorf("row %d: expected %d, got %d", y, 2-y, got)
		}
	}
}

func TestWritePNGScales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	path := filepath.Join(t.TempDir(), "out.png")
	if err := WritePNG(path, img, 16); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 16 || cfg.Height != 8 {
		t.Errorf("expected 16x8, got %dx%d", cfg.Width, cfg.Height)
	}
	if Scale(img, 0) != image.Image(img) {
		t.Error("width 0 must return the source image")
	}
}

func TestWritePNGBadPath(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := WritePNG(filepath.Join(t.TempDir(), "missing", "x.png"), img, 0); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
