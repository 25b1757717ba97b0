package scene

import (
	"errors"
	"fmt"
	gomath "math"

	"shadow-engine/math"
)

var (
	// ErrDegenerateView is returned when eye and target coincide.
	ErrDegenerateView = errors.New("camera eye equals target")
	// ErrDegenerateUp is returned when up is parallel to the look direction.
	ErrDegenerateUp = errors.New("camera up vector parallel to view direction")
)

// Projection selects how a Camera maps view space to clip space.
type Projection int

const (
	ProjectionPerspective Projection = iota
	ProjectionOrthographic
)

// Zoom limits. FOV values are degrees; ortho values are half-extents.
const (
	MinFOV         = 5.0
	MaxFOV         = 120.0
	MinOrthoExtent = 1.0
	MaxOrthoExtent = 10000.0
)

// CameraConfig is the full state a Camera is built from and reset to.
type CameraConfig struct {
	Eye, Target, Up math.Vec3
	Projection      Projection
	FOV             float32 // vertical, degrees
	OrthoExtent     float32 // half height of the orthographic volume
	Near, Far       float32
	Width, Height   int
}

// Camera holds view and projection state for one viewpoint.
//
// Every mutator recomputes the affected matrices before it returns, so
// ViewMatrix and ProjectionMatrix are plain reads.
type Camera struct {
	eye, target, up math.Vec3
	projection      Projection
	fov             float32
	orthoExtent     float32
	near, far       float32
	width, height   int

	initial CameraConfig

	viewMatrix       math.Mat4
	projectionMatrix math.Mat4
}

// NewCamera validates cfg and derives both matrices.
func NewCamera(cfg CameraConfig) (*Camera, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("camera viewport %dx%d: must be positive", cfg.Width, cfg.Height)
	}
	if cfg.Near <= 0 || cfg.Far <= cfg.Near {
		return nil, fmt.Errorf("camera clip range [%v,%v]: need 0 < near < far", cfg.Near, cfg.Far)
	}
	c := &Camera{initial: cfg}
	if err := c.apply(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// NewPerspectiveCamera builds a perspective camera with a vertical FOV in
// degrees.
func NewPerspectiveCamera(eye, target, up math.Vec3, fov, near, far float32, width, height int) (*Camera, error) {
	return NewCamera(CameraConfig{
		Eye: eye, Target: target, Up: up,
		Projection: ProjectionPerspective,
		FOV:        fov,
		Near:       near, Far: far,
		Width: width, Height: height,
	})
}

// NewOrthographicCamera builds an orthographic camera whose volume is
// 2·extent high and as wide as the viewport aspect requires.
func NewOrthographicCamera(eye, target, up math.Vec3, extent, near, far float32, width, height int) (*Camera, error) {
	return NewCamera(CameraConfig{
		Eye: eye, Target: target, Up: up,
		Projection:  ProjectionOrthographic,
		FOV:         MaxFOV,
		OrthoExtent: extent,
		Near:        near, Far: far,
		Width: width, Height: height,
	})
}

func (c *Camera) apply(cfg CameraConfig) error {
	c.projection = cfg.Projection
	c.fov = clampf(cfg.FOV, MinFOV, MaxFOV)
	c.orthoExtent = clampf(cfg.OrthoExtent, MinOrthoExtent, MaxOrthoExtent)
	c.near, c.far = cfg.Near, cfg.Far
	c.width, c.height = cfg.Width, cfg.Height
	c.rebuildProjection()
	return c.UpdatePosition(cfg.Eye, cfg.Target, cfg.Up)
}

// UpdateViewportSize stores the new size and rebuilds the projection.
// Non-positive sizes (a minimised window) are ignored.
func (c *Camera) UpdateViewportSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
	c.rebuildProjection()
}

// UpdatePosition rebuilds the view matrix with a look-at from eye toward
// target. On error the camera keeps its previous state.
func (c *Camera) UpdatePosition(eye, target, up math.Vec3) error {
	dir := target.Sub(eye)
	if dir.LengthSqr() == 0 {
		return fmt.Errorf("update position %v: %w", eye, ErrDegenerateView)
	}
	if up.Normalize().Cross(dir.Normalize()).LengthSqr() < 1e-10 {
		return fmt.Errorf("update position up=%v: %w", up, ErrDegenerateUp)
	}
	c.eye, c.target, c.up = eye, target, up
	c.viewMatrix = math.Mat4LookAt(eye, target, up)
	return nil
}

func (c *Camera) rebuildProjection() {
	aspect := float32(c.width) / float32(c.height)
	switch c.projection {
	case ProjectionOrthographic:
		h := c.orthoExtent
		w := h * aspect
		c.projectionMatrix = math.Mat4Orthographic(-w, w, -h, h, c.near, c.far)
	default:
		c.projectionMatrix = math.Mat4Perspective(math.DegToRad(c.fov), aspect, c.near, c.far)
	}
}

func (c *Camera) ViewMatrix() math.Mat4       { return c.viewMatrix }
func (c *Camera) ProjectionMatrix() math.Mat4 { return c.projectionMatrix }

// ViewProjection returns view followed by projection (GL: P·V).
func (c *Camera) ViewProjection() math.Mat4 {
	return c.viewMatrix.Mul(c.projectionMatrix)
}

func (c *Camera) Eye() math.Vec3    { return c.eye }
func (c *Camera) Target() math.Vec3 { return c.target }
func (c *Camera) Up() math.Vec3     { return c.up }
func (c *Camera) FOV() float32      { return c.fov }
func (c *Camera) Width() int        { return c.width }
func (c *Camera) Height() int       { return c.height }
func (c *Camera) Near() float32     { return c.near }
func (c *Camera) Far() float32      { return c.far }

func (c *Camera) OrthoExtent() float32   { return c.orthoExtent }
func (c *Camera) Projection() Projection { return c.projection }

// Forward is the unit look direction.
func (c *Camera) Forward() math.Vec3 {
	return c.target.Sub(c.eye).Normalize()
}

// Right is the unit vector to the right of the look direction.
func (c *Camera) Right() math.Vec3 {
	return c.Forward().Cross(c.up).Normalize()
}

func (c *Camera) translate(delta math.Vec3) {
	c.eye = c.eye.Add(delta)
	c.target = c.target.Add(delta)
	c.viewMatrix = math.Mat4LookAt(c.eye, c.target, c.up)
}

func (c *Camera) MoveForward(d float32)  { c.translate(c.Forward().Mul(d)) }
func (c *Camera) MoveBackward(d float32) { c.translate(c.Forward().Mul(-d)) }
func (c *Camera) MoveRight(d float32)    { c.translate(c.Right().Mul(d)) }
func (c *Camera) MoveLeft(d float32)     { c.translate(c.Right().Mul(-d)) }
func (c *Camera) MoveUp(d float32)       { c.translate(c.up.Normalize().Mul(d)) }
func (c *Camera) MoveDown(d float32)     { c.translate(c.up.Normalize().Mul(-d)) }

// RotateAroundWorldY turns the look direction about the world Y axis
// through the eye.
func (c *Camera) RotateAroundWorldY(deg float32) {
	rot := math.Mat4RotationY(math.DegToRad(deg))
	dir := rot.TransformDirection(c.target.Sub(c.eye))
	up := rot.TransformDirection(c.up)
	_ = c.UpdatePosition(c.eye, c.eye.Add(dir), up)
}

// Pitch tilts the look direction about the camera's right axis. A pitch
// that would align the view with the up vector is ignored.
func (c *Camera) Pitch(deg float32) {
	rot := math.Mat4RotationAxis(c.Right(), math.DegToRad(deg))
	dir := rot.TransformDirection(c.target.Sub(c.eye))
	if gomath.Abs(float64(dir.Normalize().Dot(c.up.Normalize()))) > 0.999 {
		return
	}
	_ = c.UpdatePosition(c.eye, c.eye.Add(dir), c.up)
}

// ZoomIn narrows the FOV (or shrinks the ortho extent) by step.
func (c *Camera) ZoomIn(step float32) { c.zoom(-step) }

// ZoomOut widens the FOV (or grows the ortho extent) by step.
func (c *Camera) ZoomOut(step float32) { c.zoom(step) }

func (c *Camera) zoom(delta float32) {
	switch c.projection {
	case ProjectionOrthographic:
		c.orthoExtent = clampf(c.orthoExtent+delta, MinOrthoExtent, MaxOrthoExtent)
	default:
		c.fov = clampf(c.fov+delta, MinFOV, MaxFOV)
	}
	c.rebuildProjection()
}

// Reset restores the configuration the camera was created with. The
// current viewport size is kept.
func (c *Camera) Reset() {
	cfg := c.initial
	cfg.Width, cfg.Height = c.width, c.height
	_ = c.apply(cfg)
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
