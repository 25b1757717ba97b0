package scene

import (
	gomath "math"

	"shadow-engine/math"
)

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

// At returns the point t units along the ray.
func (r Ray) At(t float32) math.Vec3 { return r.Origin.Add(r.Direction.Mul(t)) }

// Hit is the closest intersection found by Pick.
type Hit struct {
	Object   *Object
	Distance float32
	Point    math.Vec3
	Normal   math.Vec3
}

// ScreenRay returns the world-space ray through window pixel (x, y), with
// y growing downwards as window systems report it.
func (c *Camera) ScreenRay(x, y float32) Ray {
	ndcX := 2*x/float32(c.width) - 1
	ndcY := 1 - 2*y/float32(c.height)
	aspect := float32(c.width) / float32(c.height)

	fwd := c.Forward()
	right := c.Right()
	up := right.Cross(fwd)

	if c.projection == ProjectionOrthographic {
		h := c.orthoExtent
		origin := c.eye.Add(right.Mul(ndcX * h * aspect)).Add(up.Mul(ndcY * h))
		return Ray{Origin: origin, Direction: fwd}
	}
	tanHalf := float32(gomath.Tan(float64(math.DegToRad(c.fov)) / 2))
	dir := fwd.Add(right.Mul(ndcX * tanHalf * aspect)).Add(up.Mul(ndcY * tanHalf))
	return Ray{Origin: c.eye, Direction: dir.Normalize()}
}

// Pick returns the nearest visible object hit by ray.
func (s *Scene) Pick(ray Ray) (Hit, bool) {
	best := Hit{Distance: gomath.MaxFloat32}
	found := false
	for _, o := range s.Objects {
		if !o.Visible || o.Geometry == nil {
			continue
		}
		t, ok := ray.intersectAABB(ComputeAABB(o.Geometry, o.Model))
		if !ok || t > best.Distance {
			continue
		}
		if h, ok := ray.intersectObject(o); ok && h.Distance < best.Distance {
			best, found = h, true
		}
	}
	return best, found
}

// intersectAABB is the slab test. It returns the entry distance, which is
// negative when the origin is inside the box.
func (r Ray) intersectAABB(box AABB) (float32, bool) {
	inv := math.NewVec3(1/r.Direction.X, 1/r.Direction.Y, 1/r.Direction.Z)

	t1 := (box.Min.X - r.Origin.X) * inv.X
	t2 := (box.Max.X - r.Origin.X) * inv.X
	t3 := (box.Min.Y - r.Origin.Y) * inv.Y
	t4 := (box.Max.Y - r.Origin.Y) * inv.Y
	t5 := (box.Min.Z - r.Origin.Z) * inv.Z
	t6 := (box.Max.Z - r.Origin.Z) * inv.Z

	tmin := max(min(t1, t2), min(t3, t4), min(t5, t6))
	tmax := min(max(t1, t2), max(t3, t4), max(t5, t6))
	if tmax < 0 || tmin > tmax {
		return 0, false
	}
	return tmin, true
}

func (r Ray) intersectObject(o *Object) (Hit, bool) {
	best := Hit{Distance: gomath.MaxFloat32}
	found := false
	o.Geometry.Triangles(func(a, b, c int) {
		v0 := o.Model.TransformPoint(o.Geometry.Position(a))
		v1 := o.Model.TransformPoint(o.Geometry.Position(b))
		v2 := o.Model.TransformPoint(o.Geometry.Position(c))
		t, ok := r.intersectTriangle(v0, v1, v2)
		if ok && t < best.Distance {
			best = Hit{
				Object:   o,
				Distance: t,
				Point:    r.At(t),
				Normal:   v1.Sub(v0).Cross(v2.Sub(v0)).Normalize(),
			}
			found = true
		}
	})
	return best, found
}

// intersectTriangle is Möller–Trumbore; both windings hit.
func (r Ray) intersectTriangle(v0, v1, v2 math.Vec3) (float32, bool) {
	const epsilon = 1e-7

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := r.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return 0, false
	}

	f := 1 / a
	s := r.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := f * r.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := f * edge2.Dot(q)
	return t, t > epsilon
}
