package scene

import "shadow-engine/math"

// Plane is the half-space Normal·p + D >= 0.
type Plane struct {
	Normal math.Vec3
	D      float32
}

// DistanceTo returns the signed distance from pt to the plane; positive is
// inside.
func (p Plane) DistanceTo(pt math.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the six clip planes of a view volume.
type Frustum struct {
	Planes [6]Plane // left, right, bottom, top, near, far
}

// FrustumFromVP extracts normalized planes from a view-projection matrix.
// Matrices multiply row vectors, so clip coordinate j is column j of vp.
func FrustumFromVP(vp math.Mat4) Frustum {
	col := func(j int) math.Vec4 {
		return math.Vec4{X: vp[0][j], Y: vp[1][j], Z: vp[2][j], W: vp[3][j]}
	}
	cx, cy, cz, cw := col(0), col(1), col(2), col(3)

	var f Frustum
	f.Planes[0] = planeFrom(cw, cx, 1)
	f.Planes[1] = planeFrom(cw, cx, -1)
	f.Planes[2] = planeFrom(cw, cy, 1)
	f.Planes[3] = planeFrom(cw, cy, -1)
	f.Planes[4] = planeFrom(cw, cz, 1)
	f.Planes[5] = planeFrom(cw, cz, -1)
	return f
}

func planeFrom(w, c math.Vec4, sign float32) Plane {
	a := w.X + sign*c.X
	b := w.Y + sign*c.Y
	cc := w.Z + sign*c.Z
	d := w.W + sign*c.W
	l := math.NewVec3(a, b, cc).Length()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: math.NewVec3(a/l, b/l, cc/l), D: d / l}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max math.Vec3
}

// IntersectsFrustum reports false only when the box lies entirely outside
// one of the planes.
func (box AABB) IntersectsFrustum(f *Frustum) bool {
	for _, p := range f.Planes {
		// corner furthest along the plane normal
		c := box.Max
		if p.Normal.X < 0 {
			c.X = box.Min.X
		}
		if p.Normal.Y < 0 {
			c.Y = box.Min.Y
		}
		if p.Normal.Z < 0 {
			c.Z = box.Min.Z
		}
		if p.DistanceTo(c) < 0 {
			return false
		}
	}
	return true
}

func (box *AABB) extend(p math.Vec3) {
	box.Min = math.NewVec3(min(box.Min.X, p.X), min(box.Min.Y, p.Y), min(box.Min.Z, p.Z))
	box.Max = math.NewVec3(max(box.Max.X, p.X), max(box.Max.Y, p.Y), max(box.Max.Z, p.Z))
}

// ComputeAABB returns the world-space bounds of g under model. An empty
// geometry yields a zero box.
func ComputeAABB(g *Geometry, model math.Mat4) AABB {
	if g == nil || g.VertexCount == 0 {
		return AABB{}
	}
	first := model.TransformPoint(g.Position(0))
	box := AABB{Min: first, Max: first}
	for i := 1; i < g.VertexCount; i++ {
		box.extend(model.TransformPoint(g.Position(i)))
	}
	return box
}
