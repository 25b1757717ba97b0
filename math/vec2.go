package math

type Vec2 struct {
	X, Y float32
}

func NewVec2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

func (v Vec2) Mul(scalar float32) Vec2 {
	return Vec2{X: v.X * scalar, Y: v.Y * scalar}
}

// Barycentric2 blends three values with weights w0, w1, w2.
func Barycentric2(a, b, c Vec2, w0, w1, w2 float32) Vec2 {
	return Vec2{
		X: a.X*w0 + b.X*w1 + c.X*w2,
		Y: a.Y*w0 + b.Y*w1 + c.Y*w2,
	}
}
