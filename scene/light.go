package scene

import (
	"shadow-engine/core"
	"shadow-engine/math"
)

// NoSpotCutoff disables the spotlight cone.
const NoSpotCutoff = 180.0

// LightParams is the full attribute set of one light.
type LightParams struct {
	// Position is a point when W=1 and a direction toward the light when W=0.
	Position math.Vec4
	Ambient  core.Color
	Diffuse  core.Color
	Specular core.Color

	SpotDirection math.Vec3
	SpotExponent  float32
	SpotCutoff    float32 // degrees; NoSpotCutoff means no cone

	// Attenuation holds the constant, linear and quadratic terms.
	Attenuation math.Vec3
}

// DefaultLightParams returns a white point light at the origin with no
// cone and no distance falloff.
func DefaultLightParams() LightParams {
	return LightParams{
		Position:      math.NewVec4(0, 0, 1, 1),
		Ambient:       core.ColorBlack,
		Diffuse:       core.ColorWhite,
		Specular:      core.ColorWhite,
		SpotDirection: math.NewVec3(0, 0, -1),
		SpotCutoff:    NoSpotCutoff,
		Attenuation:   math.NewVec3(1, 0, 0),
	}
}

func (p LightParams) IsDirectional() bool { return p.Position.W == 0 }
func (p LightParams) IsSpot() bool        { return p.SpotCutoff < NoSpotCutoff }

// Light is one registry record.
type Light struct {
	LightParams
	Active bool
}

// LightRegistry is an append-only list of lights plus a global switch.
//
// Setters take an index and report whether it was in range. An out-of-range
// index leaves the registry untouched.
type LightRegistry struct {
	lights        []Light
	globalOn      bool
	globalAmbient core.Color
}

func NewLightRegistry() *LightRegistry {
	return &LightRegistry{
		globalOn:      true,
		globalAmbient: core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1},
	}
}

// AddLight appends an active light and returns its index.
func (r *LightRegistry) AddLight(p LightParams) int {
	r.lights = append(r.lights, Light{LightParams: p, Active: true})
	return len(r.lights) - 1
}

func (r *LightRegistry) Len() int { return len(r.lights) }

// Light returns a copy of record i.
func (r *LightRegistry) Light(i int) (Light, bool) {
	if i < 0 || i >= len(r.lights) {
		return Light{}, false
	}
	return r.lights[i], true
}

func (r *LightRegistry) update(i int, fn func(l *Light)) bool {
	if i < 0 || i >= len(r.lights) {
		return false
	}
	fn(&r.lights[i])
	return true
}

func (r *LightRegistry) SetPosition(i int, pos math.Vec4) bool {
	return r.update(i, func(l *Light) { l.Position = pos })
}

func (r *LightRegistry) SetAmbient(i int, c core.Color) bool {
	return r.update(i, func(l *Light) { l.Ambient = c })
}

func (r *LightRegistry) SetDiffuse(i int, c core.Color) bool {
	return r.update(i, func(l *Light) { l.Diffuse = c })
}

func (r *LightRegistry) SetSpecular(i int, c core.Color) bool {
	return r.update(i, func(l *Light) { l.Specular = c })
}

func (r *LightRegistry) SetSpotDirection(i int, dir math.Vec3) bool {
	return r.update(i, func(l *Light) { l.SpotDirection = dir })
}

func (r *LightRegistry) SetSpotExponent(i int, exp float32) bool {
	return r.update(i, func(l *Light) { l.SpotExponent = exp })
}

func (r *LightRegistry) SetSpotCutoff(i int, deg float32) bool {
	return r.update(i, func(l *Light) { l.SpotCutoff = deg })
}

func (r *LightRegistry) SetAttenuation(i int, constant, linear, quadratic float32) bool {
	return r.update(i, func(l *Light) { l.Attenuation = math.NewVec3(constant, linear, quadratic) })
}

func (r *LightRegistry) Activate(i int) bool {
	return r.update(i, func(l *Light) { l.Active = true })
}

func (r *LightRegistry) Deactivate(i int) bool {
	return r.update(i, func(l *Light) { l.Active = false })
}

func (r *LightRegistry) IsActive(i int) bool {
	l, ok := r.Light(i)
	return ok && l.Active
}

// ToggleGlobalSwitch flips the master switch and returns the new state.
func (r *LightRegistry) ToggleGlobalSwitch() bool {
	r.globalOn = !r.globalOn
	return r.globalOn
}

func (r *LightRegistry) SetGlobalSwitch(on bool) { r.globalOn = on }
func (r *LightRegistry) IsGloballyOn() bool      { return r.globalOn }

func (r *LightRegistry) GlobalAmbient() core.Color     { return r.globalAmbient }
func (r *LightRegistry) SetGlobalAmbient(c core.Color) { r.globalAmbient = c }

// ExportedLight is an active light tagged with its registry index.
type ExportedLight struct {
	Index int
	LightParams
}

// LightingExport is everything the shading stage needs from the registry.
type LightingExport struct {
	Enabled       bool
	GlobalAmbient core.Color
	Lights        []ExportedLight
}

// Export snapshots the active lights in registry order.
func (r *LightRegistry) Export() LightingExport {
	out := LightingExport{
		Enabled:       r.globalOn,
		GlobalAmbient: r.globalAmbient,
	}
	for i, l := range r.lights {
		if l.Active {
			out.Lights = append(out.Lights, ExportedLight{Index: i, LightParams: l.LightParams})
		}
	}
	return out
}
