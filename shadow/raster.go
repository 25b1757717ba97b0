package shadow

import (
	gomath "math"

	"shadow-engine/math"
)

// Fragment is one covered pixel of a rasterized triangle. Pixel rows count
// up from the bottom of the target, as in GL window space.
type Fragment struct {
	X, Y int
	// Depth is the window-space depth in [0,1].
	Depth float32
	// Slope is the larger of |dDepth/dx| and |dDepth/dy| over the triangle.
	Slope float32
	// Bary holds perspective-correct weights of the three input vertices.
	Bary math.Vec3
}

// clipVertex is a clip-space position plus its weights over the vertices
// of the unclipped triangle.
type clipVertex struct {
	pos math.Vec4
	w   math.Vec3
}

type screenVertex struct {
	x, y, z float32
	invW    float32
	w       math.Vec3
}

// Rasterize covers every pixel of a width×height target whose centre lies
// inside the clip-space triangle. Both windings are drawn. The triangle is
// clipped against the near plane first; fragments past the far plane are
// dropped.
func Rasterize(clip [3]math.Vec4, width, height int, fn func(Fragment)) {
	RasterizeRows(clip, width, height, 0, height, fn)
}

// RasterizeRows is Rasterize restricted to rows [y0, y1).
func RasterizeRows(clip [3]math.Vec4, width, height, y0, y1 int, fn func(Fragment)) {
	poly := clipNear([3]clipVertex{
		{clip[0], math.NewVec3(1, 0, 0)},
		{clip[1], math.NewVec3(0, 1, 0)},
		{clip[2], math.NewVec3(0, 0, 1)},
	})
	if len(poly) < 3 {
		return
	}

	sv := make([]screenVertex, len(poly))
	for i, v := range poly {
		inv := 1 / v.pos.W
		sv[i] = screenVertex{
			x:    (v.pos.X*inv*0.5 + 0.5) * float32(width),
			y:    (v.pos.Y*inv*0.5 + 0.5) * float32(height),
			z:    v.pos.Z*inv*0.5 + 0.5,
			invW: inv,
			w:    v.w,
		}
	}
	for i := 1; i+1 < len(sv); i++ {
		rasterTriangle(sv[0], sv[i], sv[i+1], width, height, y0, y1, fn)
	}
}

// clipNear clips against z >= -w, the GL near plane, and returns the
// resulting convex polygon (0, 3 or 4 vertices).
func clipNear(tri [3]clipVertex) []clipVertex {
	dist := func(v clipVertex) float32 { return v.pos.Z + v.pos.W }

	inside := 0
	for _, v := range tri {
		if dist(v) >= 0 {
			inside++
		}
	}
	switch inside {
	case 0:
		return nil
	case 3:
		return tri[:]
	}

	out := make([]clipVertex, 0, 4)
	for i := range tri {
		a, b := tri[i], tri[(i+1)%3]
		da, db := dist(a), dist(b)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			out = append(out, clipVertex{
				pos: lerp4(a.pos, b.pos, t),
				w:   a.w.Add(b.w.Sub(a.w).Mul(t)),
			})
		}
	}
	return out
}

func lerp4(a, b math.Vec4, t float32) math.Vec4 {
	return math.Vec4{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
		W: a.W + (b.W-a.W)*t,
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func rasterTriangle(a, b, c screenVertex, width, height, y0, y1 int, fn func(Fragment)) {
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if area == 0 {
		return
	}
	invArea := 1 / area

	// depth plane z = zx·x + zy·y + k
	zx := ((b.z-a.z)*(c.y-a.y) - (c.z-a.z)*(b.y-a.y)) * invArea
	zy := ((c.z-a.z)*(b.x-a.x) - (b.z-a.z)*(c.x-a.x)) * invArea
	slope := max(abs32(zx), abs32(zy))

	minX := max(0, int(floor32(min(a.x, b.x, c.x))))
	maxX := min(width-1, int(ceil32(max(a.x, b.x, c.x))))
	minY := max(y0, int(floor32(min(a.y, b.y, c.y))))
	maxY := min(y1-1, height-1, int(ceil32(max(a.y, b.y, c.y))))

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			s0 := edge(b.x, b.y, c.x, c.y, px, py) * invArea
			s1 := edge(c.x, c.y, a.x, a.y, px, py) * invArea
			s2 := edge(a.x, a.y, b.x, b.y, px, py) * invArea
			if s0 < 0 || s1 < 0 || s2 < 0 {
				continue
			}
			z := s0*a.z + s1*b.z + s2*c.z
			if z < 0 || z > 1 {
				continue
			}

			p0, p1, p2 := s0*a.invW, s1*b.invW, s2*c.invW
			norm := 1 / (p0 + p1 + p2)
			bary := a.w.Mul(p0 * norm).Add(b.w.Mul(p1 * norm)).Add(c.w.Mul(p2 * norm))

			fn(Fragment{X: x, Y: y, Depth: z, Slope: slope, Bary: bary})
		}
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func floor32(f float32) float32 { return float32(gomath.Floor(float64(f))) }
func ceil32(f float32) float32  { return float32(gomath.Ceil(float64(f))) }
