package scene

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"shadow-engine/core"
)

// MaxTextureSize is the largest edge kept on load; bigger images are
// downscaled preserving aspect ratio.
const MaxTextureSize = 4096

// Releaser is implemented by GPU-side handles owned by scene resources.
type Releaser interface {
	Release()
}

// Texture holds CPU-side RGBA8 pixels, row-major, top row first.
type Texture struct {
	Name   string
	Width  int
	Height int
	Pixels []byte

	// GPUData is set by a rendering backend once the texture is uploaded.
	GPUData Releaser
}

// LoadTexture decodes a PNG, JPEG, BMP or TIFF file into an RGBA8 Texture.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}
	return TextureFromImage(path, img), nil
}

// decodeImageBytes decodes an in-memory image, as found in GLB buffers.
func decodeImageBytes(name string, data []byte) (*Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", name, err)
	}
	return TextureFromImage(name, img), nil
}

// TextureFromImage converts any image to an RGBA8 texture.
func TextureFromImage(name string, img image.Image) *Texture {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	var rgba *image.RGBA
	if w > MaxTextureSize || h > MaxTextureSize {
		w, h = fitWithin(w, h, MaxTextureSize)
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(rgba, rgba.Bounds(), img, b, xdraw.Src, nil)
		core.Logger().Debug("texture downscaled", "name", name, "from", b.Size(), "to", rgba.Bounds().Size())
	} else {
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	}
	return &Texture{
		Name:   name,
		Width:  w,
		Height: h,
		Pixels: rgba.Pix,
	}
}

func fitWithin(w, h, limit int) (int, int) {
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// NewSolidTexture creates a 1x1 texture with the given RGBA color values.
func NewSolidTexture(name string, r, g, b, a uint8) *Texture {
	return &Texture{
		Name:   name,
		Width:  1,
		Height: 1,
		Pixels: []byte{r, g, b, a},
	}
}

// Sample returns the nearest texel at (u, v) with repeat wrapping. v=0 is
// the first row, matching how the pixels are uploaded.
func (t *Texture) Sample(u, v float32) core.Color {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return core.ColorWhite
	}
	x := wrap(int(floor32(u*float32(t.Width))), t.Width)
	y := wrap(int(floor32(v*float32(t.Height))), t.Height)
	i := (y*t.Width + x) * 4
	const inv = 1.0 / 255.0
	return core.Color{
		R: float32(t.Pixels[i]) * inv,
		G: float32(t.Pixels[i+1]) * inv,
		B: float32(t.Pixels[i+2]) * inv,
		A: float32(t.Pixels[i+3]) * inv,
	}
}

// Release frees the GPU copy, if any. The CPU pixels are kept.
func (t *Texture) Release() {
	if t == nil || t.GPUData == nil {
		return
	}
	t.GPUData.Release()
	t.GPUData = nil
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func floor32(f float32) float32 {
	i := float32(int(f))
	if i > f {
		i--
	}
	return i
}
