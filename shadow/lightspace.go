package shadow

import (
	"fmt"
	"strings"

	"shadow-engine/math"
	"shadow-engine/scene"
)

// LightKind selects how the light camera is aimed.
type LightKind int

const (
	// PointLight looks from the light toward a fixed scene anchor.
	PointLight LightKind = iota
	// SpotLight looks along the light's spot direction.
	SpotLight
)

func (k LightKind) String() string {
	switch k {
	case PointLight:
		return "point"
	case SpotLight:
		return "spot"
	}
	return fmt.Sprintf("LightKind(%d)", int(k))
}

// ParseLightKind accepts "point" or "spot", case-insensitively. An empty
// string is a point light.
func ParseLightKind(s string) (LightKind, error) {
	switch strings.ToLower(s) {
	case "point", "":
		return PointLight, nil
	case "spot":
		return SpotLight, nil
	}
	return 0, fmt.Errorf("unknown light kind %q", s)
}

// LightEye returns where the light camera sits. Directional lights have no
// position, so the camera is placed back along the light direction from
// the anchor at distance.
func LightEye(l scene.LightParams, anchor math.Vec3, distance float32) math.Vec3 {
	if l.IsDirectional() {
		return anchor.Add(l.Position.ToVec3().Normalize().Mul(distance))
	}
	return l.Position.ToVec3()
}

// LightTarget returns the point the light camera looks at.
func LightTarget(kind LightKind, l scene.LightParams, eye, anchor math.Vec3) math.Vec3 {
	if kind == SpotLight && l.SpotDirection.LengthSqr() > 0 {
		return eye.Add(l.SpotDirection.Normalize())
	}
	return anchor
}

// LightUp picks world +Y unless the view is nearly vertical, then +Z.
func LightUp(eye, target math.Vec3) math.Vec3 {
	dir := target.Sub(eye).Normalize()
	if d := dir.Y; d > 0.99 || d < -0.99 {
		return math.NewVec3(0, 0, 1)
	}
	return math.Vec3Up
}

// AimLightCamera points cam from the light along its kind's direction. On
// error the camera is unchanged.
func AimLightCamera(cam *scene.Camera, l scene.LightParams, kind LightKind, anchor math.Vec3) error {
	eye := LightEye(l, anchor, cam.Far()*0.5)
	target := LightTarget(kind, l, eye, anchor)
	if err := cam.UpdatePosition(eye, target, LightUp(eye, target)); err != nil {
		return fmt.Errorf("aim light camera: %w", err)
	}
	return nil
}

// LightViewProjection is the world to light clip transform (GL P·V).
func LightViewProjection(cam *scene.Camera) math.Mat4 {
	return cam.ViewMatrix().Mul(cam.ProjectionMatrix())
}
