package scene

import (
	"errors"
	"fmt"

	"shadow-engine/math"
)

var (
	// ErrAttributeCount is returned when optional attribute arrays do not
	// match the position count.
	ErrAttributeCount = errors.New("attribute count mismatch")
	// ErrBadLayout is returned for buffers that do not fit their layout.
	ErrBadLayout = errors.New("buffer does not match vertex layout")
)

// Layout is a fixed interleaving of vertex attributes. Attribute order is
// always position, then normal, then uv.
type Layout int

const (
	LayoutP   Layout = iota // position
	LayoutPN                // position, normal
	LayoutPT                // position, uv
	LayoutPNT               // position, normal, uv
)

// LayoutFor picks the layout holding exactly the given attributes.
func LayoutFor(hasNormals, hasUVs bool) Layout {
	switch {
	case hasNormals && hasUVs:
		return LayoutPNT
	case hasNormals:
		return LayoutPN
	case hasUVs:
		return LayoutPT
	default:
		return LayoutP
	}
}

func (l Layout) HasNormals() bool { return l == LayoutPN || l == LayoutPNT }
func (l Layout) HasUVs() bool     { return l == LayoutPT || l == LayoutPNT }

// Stride is the number of floats per vertex.
func (l Layout) Stride() int {
	s := 3
	if l.HasNormals() {
		s += 3
	}
	if l.HasUVs() {
		s += 2
	}
	return s
}

// NormalOffset is the float offset of the normal, or -1.
func (l Layout) NormalOffset() int {
	if !l.HasNormals() {
		return -1
	}
	return 3
}

// UVOffset is the float offset of the uv, or -1.
func (l Layout) UVOffset() int {
	switch {
	case !l.HasUVs():
		return -1
	case l.HasNormals():
		return 6
	default:
		return 3
	}
}

func (l Layout) String() string {
	switch l {
	case LayoutP:
		return "P"
	case LayoutPN:
		return "PN"
	case LayoutPT:
		return "PT"
	case LayoutPNT:
		return "PNT"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// DrawMode is the primitive topology of a draw call.
type DrawMode int

const (
	DrawTriangles DrawMode = iota
	DrawTriangleStrip
	DrawTriangleFan
	DrawLines
	DrawPoints
)

// Geometry is an interleaved vertex buffer with a fixed layout.
type Geometry struct {
	Mode        DrawMode
	Layout      Layout
	Data        []float32
	VertexCount int
}

// Pack interleaves the attributes. normals and uvs may be nil; when present
// they must have one entry per position.
func Pack(positions []math.Vec3, normals []math.Vec3, uvs []math.Vec2) ([]float32, Layout, error) {
	if normals != nil && len(normals) != len(positions) {
		return nil, 0, fmt.Errorf("pack: %d normals for %d positions: %w", len(normals), len(positions), ErrAttributeCount)
	}
	if uvs != nil && len(uvs) != len(positions) {
		return nil, 0, fmt.Errorf("pack: %d uvs for %d positions: %w", len(uvs), len(positions), ErrAttributeCount)
	}
	layout := LayoutFor(normals != nil, uvs != nil)
	data := make([]float32, 0, len(positions)*layout.Stride())
	for i, p := range positions {
		data = append(data, p.X, p.Y, p.Z)
		if normals != nil {
			n := normals[i]
			data = append(data, n.X, n.Y, n.Z)
		}
		if uvs != nil {
			data = append(data, uvs[i].X, uvs[i].Y)
		}
	}
	return data, layout, nil
}

// Unpack splits an interleaved buffer back into attribute arrays. Absent
// attributes come back nil.
func Unpack(data []float32, layout Layout) (positions []math.Vec3, normals []math.Vec3, uvs []math.Vec2, err error) {
	if layout < LayoutP || layout > LayoutPNT {
		return nil, nil, nil, fmt.Errorf("unpack: %v: %w", layout, ErrBadLayout)
	}
	stride := layout.Stride()
	if len(data)%stride != 0 {
		return nil, nil, nil, fmt.Errorf("unpack: %d floats with stride %d: %w", len(data), stride, ErrBadLayout)
	}
	count := len(data) / stride
	positions = make([]math.Vec3, count)
	if layout.HasNormals() {
		normals = make([]math.Vec3, count)
	}
	if layout.HasUVs() {
		uvs = make([]math.Vec2, count)
	}
	no, uo := layout.NormalOffset(), layout.UVOffset()
	for i := 0; i < count; i++ {
		v := data[i*stride : (i+1)*stride]
		positions[i] = math.NewVec3(v[0], v[1], v[2])
		if no >= 0 {
			normals[i] = math.NewVec3(v[no], v[no+1], v[no+2])
		}
		if uo >= 0 {
			uvs[i] = math.NewVec2(v[uo], v[uo+1])
		}
	}
	return positions, normals, uvs, nil
}

// NewGeometry packs the attributes into a Geometry.
func NewGeometry(mode DrawMode, positions []math.Vec3, normals []math.Vec3, uvs []math.Vec2) (*Geometry, error) {
	data, layout, err := Pack(positions, normals, uvs)
	if err != nil {
		return nil, err
	}
	return &Geometry{Mode: mode, Layout: layout, Data: data, VertexCount: len(positions)}, nil
}

func (g *Geometry) vertex(i int) []float32 {
	s := g.Layout.Stride()
	return g.Data[i*s : (i+1)*s]
}

func (g *Geometry) Position(i int) math.Vec3 {
	v := g.vertex(i)
	return math.NewVec3(v[0], v[1], v[2])
}

// Normal returns the vertex normal, or +Y when the layout has none.
func (g *Geometry) Normal(i int) math.Vec3 {
	o := g.Layout.NormalOffset()
	if o < 0 {
		return math.Vec3Up
	}
	v := g.vertex(i)
	return math.NewVec3(v[o], v[o+1], v[o+2])
}

// UV returns the texture coordinate, or zero when the layout has none.
func (g *Geometry) UV(i int) math.Vec2 {
	o := g.Layout.UVOffset()
	if o < 0 {
		return math.Vec2{}
	}
	v := g.vertex(i)
	return math.NewVec2(v[o], v[o+1])
}

// Triangles calls fn with the vertex indices of every triangle the draw mode
// produces. Lines and points produce none.
func (g *Geometry) Triangles(fn func(a, b, c int)) {
	n := g.VertexCount
	switch g.Mode {
	case DrawTriangles:
		for i := 0; i+2 < n; i += 3 {
			fn(i, i+1, i+2)
		}
	case DrawTriangleStrip:
		for i := 0; i+2 < n; i++ {
			if i%2 == 0 {
				fn(i, i+1, i+2)
			} else {
				fn(i+1, i, i+2)
			}
		}
	case DrawTriangleFan:
		for i := 1; i+1 < n; i++ {
			fn(0, i, i+1)
		}
	}
}
