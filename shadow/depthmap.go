package shadow

import (
	"shadow-engine/math"
	"shadow-engine/scene"
)

// DepthMap is a single-channel depth target. Row 0 is the bottom row, so
// texel (x, y) covers texture coordinates [x/W, (x+1)/W) × [y/H, (y+1)/H).
type DepthMap struct {
	Width, Height int
	depth         []float32
}

func NewDepthMap(width, height int) *DepthMap {
	d := &DepthMap{
		Width:  width,
		Height: height,
		depth:  make([]float32, width*height),
	}
	d.Clear()
	return d
}

// Clear resets every texel to the far plane depth, 1.
func (d *DepthMap) Clear() {
	n := len(d.depth)
	if n == 0 {
		return
	}
	d.depth[0] = 1
	for i := 1; i < n; i *= 2 {
		copy(d.depth[i:], d.depth[:i])
	}
}

// At returns the stored depth at (x, y); texels outside the map read as
// the border value 1.
func (d *DepthMap) At(x, y int) float32 {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return 1
	}
	return d.depth[y*d.Width+x]
}

func (d *DepthMap) set(x, y int, z float32) {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return
	}
	d.depth[y*d.Width+x] = z
}

// Sample returns the nearest stored depth at texture coordinate (u, v).
// Coordinates outside [0,1] read the border value 1.
func (d *DepthMap) Sample(u, v float32) float32 {
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return 1
	}
	x := min(int(u*float32(d.Width)), d.Width-1)
	y := min(int(v*float32(d.Height)), d.Height-1)
	return d.At(x, y)
}

// Size reports the map resolution.
func (d *DepthMap) Size() (int, int) { return d.Width, d.Height }

// DrawTriangle depth-tests a clip-space triangle with a LESS comparison,
// offsetting its depth by bias first.
func (d *DepthMap) DrawTriangle(clip [3]math.Vec4, bias DepthBias) {
	Rasterize(clip, d.Width, d.Height, func(f Fragment) {
		z := bias.Apply(f.Depth, f.Slope)
		if z < d.At(f.X, f.Y) {
			d.set(f.X, f.Y, z)
		}
	})
}

// DrawGeometry renders the triangles of g transformed by mvp using only
// vertex positions.
func (d *DepthMap) DrawGeometry(g *scene.Geometry, mvp math.Mat4, bias DepthBias) {
	if g == nil {
		return
	}
	g.Triangles(func(a, b, c int) {
		d.DrawTriangle([3]math.Vec4{
			g.Position(a).ToVec4(1).MulMat(mvp),
			g.Position(b).ToVec4(1).MulMat(mvp),
			g.Position(c).ToVec4(1).MulMat(mvp),
		}, bias)
	})
}

// Depths returns the raw texel values, bottom row first.
func (d *DepthMap) Depths() []float32 { return d.depth }
