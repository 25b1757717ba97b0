package math

import "github.com/go-gl/mathgl/mgl32"

// mgl32 stores column-major matrices for column vectors. Flattened, that is
// the same sixteen floats as our row-major, row-vector Mat4, so conversion is
// a straight copy and A.Mul(B) here equals B.Mul4(A) there.

func FromMGL(m mgl32.Mat4) Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i][j] = m[i*4+j]
		}
	}
	return r
}

func (m Mat4) ToMGL() mgl32.Mat4 {
	var r mgl32.Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i*4+j] = m[i][j]
		}
	}
	return r
}

func (v Vec3) ToMGL() mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

func Vec3FromMGL(v mgl32.Vec3) Vec3 {
	return Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float32) float32 {
	return mgl32.DegToRad(deg)
}

func Mat4RotationX(angle float32) Mat4 {
	return FromMGL(mgl32.HomogRotate3DX(angle))
}

func Mat4RotationY(angle float32) Mat4 {
	return FromMGL(mgl32.HomogRotate3DY(angle))
}

func Mat4RotationZ(angle float32) Mat4 {
	return FromMGL(mgl32.HomogRotate3DZ(angle))
}

// Mat4RotationAxis rotates by angle radians around axis.
func Mat4RotationAxis(axis Vec3, angle float32) Mat4 {
	return FromMGL(mgl32.HomogRotate3D(angle, axis.Normalize().ToMGL()))
}

// Mat4Perspective maps the view frustum to GL clip space. fovY is in radians.
func Mat4Perspective(fovY, aspect, near, far float32) Mat4 {
	return FromMGL(mgl32.Perspective(fovY, aspect, near, far))
}

func Mat4Orthographic(left, right, bottom, top, near, far float32) Mat4 {
	return FromMGL(mgl32.Ortho(left, right, bottom, top, near, far))
}

// Mat4FromTRS builds a node transform from a translation, a unit
// quaternion (x, y, z, w) and a scale, applied scale first.
func Mat4FromTRS(t Vec3, q [4]float32, s Vec3) Mat4 {
	rot := mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], q[1], q[2]}}.Normalize().Mat4()
	m := mgl32.Translate3D(t.X, t.Y, t.Z).Mul4(rot).Mul4(mgl32.Scale3D(s.X, s.Y, s.Z))
	return FromMGL(m)
}
