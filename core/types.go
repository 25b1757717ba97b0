package core

import (
	"shadow-engine/math"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
)

// Gray returns an opaque color with all three channels set to v.
func Gray(v float32) Color {
	return Color{v, v, v, 1}
}

func (c Color) Add(other Color) Color {
	return Color{c.R + other.R, c.G + other.G, c.B + other.B, c.A + other.A}
}

// Mul multiplies component-wise.
func (c Color) Mul(other Color) Color {
	return Color{c.R * other.R, c.G * other.G, c.B * other.B, c.A * other.A}
}

func (c Color) Scale(s float32) Color {
	return Color{c.R * s, c.G * s, c.B * s, c.A * s}
}

// Clamp limits every channel to [0,1].
func (c Color) Clamp() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)}
}

func (c Color) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

func ColorFromArray(a [4]float32) Color {
	return Color{a[0], a[1], a[2], a[3]}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Transform composes scale, then rotation about X, Y and Z (radians), then
// translation.
type Transform struct {
	Position math.Vec3
	Rotation math.Vec3
	Scale    math.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: math.Vec3Zero,
		Scale:    math.Vec3One,
	}
}

func (t Transform) GetMatrix() math.Mat4 {
	return math.Mat4Scale(t.Scale).
		Mul(math.Mat4RotationX(t.Rotation.X)).
		Mul(math.Mat4RotationY(t.Rotation.Y)).
		Mul(math.Mat4RotationZ(t.Rotation.Z)).
		Mul(math.Mat4Translation(t.Position))
}
