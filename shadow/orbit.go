package shadow

import (
	gomath "math"

	"shadow-engine/math"
)

// Orbit moves a light around a vertical axis. The angle is kept as an
// integer step count modulo StepsPerTurn, so any whole number of turns
// lands exactly on the start position.
type Orbit struct {
	Radius       float32
	Height       float32
	Center       math.Vec3
	StepsPerTurn int

	step int
}

// NewOrbit returns an orbit at step 0. stepsPerTurn below 1 is treated as 1.
func NewOrbit(radius, height float32, center math.Vec3, stepsPerTurn int) *Orbit {
	return &Orbit{
		Radius:       radius,
		Height:       height,
		Center:       center,
		StepsPerTurn: max(1, stepsPerTurn),
	}
}

func (o *Orbit) Step() int { return o.step }

// Angle is θ = 2π·step/StepsPerTurn in radians.
func (o *Orbit) Angle() float64 {
	return 2 * gomath.Pi * float64(o.step) / float64(o.StepsPerTurn)
}

// Position is (r·cosθ + cx, height, r·sinθ + cz).
func (o *Orbit) Position() math.Vec3 {
	s, c := gomath.Sincos(o.Angle())
	return math.NewVec3(
		o.Radius*float32(c)+o.Center.X,
		o.Height,
		o.Radius*float32(s)+o.Center.Z,
	)
}

// Advance moves n steps, wrapping at a full turn. n may be negative.
func (o *Orbit) Advance(n int) {
	o.step = (o.step + n%o.StepsPerTurn + o.StepsPerTurn) % o.StepsPerTurn
}

func (o *Orbit) Reset() { o.step = 0 }
