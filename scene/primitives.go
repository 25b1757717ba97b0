package scene

import (
	stdmath "math"

	"shadow-engine/math"
)

// GroundPlane returns a size×size square on y=0 spanning [0,size] in X and
// Z, normals up, uv covering [0,1] once.
func GroundPlane(size float32) *MeshData {
	p := []math.Vec3{
		{X: 0, Y: 0, Z: 0}, {X: size, Y: 0, Z: 0}, {X: size, Y: 0, Z: size},
		{X: 0, Y: 0, Z: 0}, {X: size, Y: 0, Z: size}, {X: 0, Y: 0, Z: size},
	}
	uv := []math.Vec2{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1},
		{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
	n := make([]math.Vec3, len(p))
	for i := range n {
		n[i] = math.Vec3Up
	}
	return &MeshData{Positions: p, Normals: n, UVs: uv}
}

// Box returns an axis-aligned box between min and max as 12 triangles
// with outward face normals.
func Box(min, max math.Vec3) *MeshData {
	c := [8]math.Vec3{
		{X: min.X, Y: min.Y, Z: min.Z}, {X: max.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: max.Y, Z: min.Z}, {X: min.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: min.Y, Z: max.Z}, {X: max.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: max.Y, Z: max.Z}, {X: min.X, Y: max.Y, Z: max.Z},
	}
	faces := []struct {
		quad   [4]int
		normal math.Vec3
	}{
		{[4]int{4, 5, 6, 7}, math.NewVec3(0, 0, 1)},
		{[4]int{1, 0, 3, 2}, math.NewVec3(0, 0, -1)},
		{[4]int{5, 1, 2, 6}, math.NewVec3(1, 0, 0)},
		{[4]int{0, 4, 7, 3}, math.NewVec3(-1, 0, 0)},
		{[4]int{7, 6, 2, 3}, math.NewVec3(0, 1, 0)},
		{[4]int{0, 1, 5, 4}, math.NewVec3(0, -1, 0)},
	}
	quadUV := [4]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	mesh := &MeshData{}
	for _, f := range faces {
		for _, k := range [6]int{0, 1, 2, 0, 2, 3} {
			mesh.Positions = append(mesh.Positions, c[f.quad[k]])
			mesh.Normals = append(mesh.Normals, f.normal)
			mesh.UVs = append(mesh.UVs, quadUV[k])
		}
	}
	return mesh
}

// Sphere returns a UV sphere centred on the origin.
func Sphere(radius float32, segments, rings int) *MeshData {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	at := func(ring, seg int) (math.Vec3, math.Vec2) {
		phi := float64(ring) * stdmath.Pi / float64(rings)
		theta := float64(seg) * 2.0 * stdmath.Pi / float64(segments)
		n := math.Vec3{
			X: float32(stdmath.Sin(phi) * stdmath.Cos(theta)),
			Y: float32(stdmath.Cos(phi)),
			Z: float32(stdmath.Sin(phi) * stdmath.Sin(theta)),
		}
		return n, math.Vec2{X: float32(seg) / float32(segments), Y: float32(ring) / float32(rings)}
	}

	mesh := &MeshData{}
	emit := func(ring, seg int) {
		n, uv := at(ring, seg)
		mesh.Positions = append(mesh.Positions, n.Mul(radius))
		mesh.Normals = append(mesh.Normals, n)
		mesh.UVs = append(mesh.UVs, uv)
	}
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			emit(ring, seg)
			emit(ring+1, seg)
			emit(ring, seg+1)

			emit(ring, seg+1)
			emit(ring+1, seg)
			emit(ring+1, seg+1)
		}
	}
	return mesh
}
