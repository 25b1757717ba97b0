package scene

import (
	"testing"

	"shadow-engine/core"
	"shadow-engine/math"
)

func approxColor(a, b core.Color, eps float32) bool {
	d := func(x, y float32) bool { return x-y <= eps && y-x <= eps }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

// overheadExport has one white light straight above the origin and no
// global ambient.
func overheadExport(params func(*LightParams)) LightingExport {
	p := DefaultLightParams()
	p.Position = math.NewVec4(0, 10, 0, 1)
	if params != nil {
		params(&p)
	}
	return LightingExport{
		Enabled:       true,
		GlobalAmbient: core.ColorBlack,
		Lights:        []ExportedLight{{Index: 0, LightParams: p}},
	}
}

func groundPoint() SurfacePoint {
	return SurfacePoint{
		Position: math.Vec3Zero,
		Normal:   math.Vec3Up,
		Eye:      math.NewVec3(0, 10, 10),
		Material: NewMaterial("test", core.ColorWhite),
		Texel:    core.ColorWhite,
	}
}

func TestShadeDiffuseFacingLight(t *testing.T) {
	got := Shade(overheadExport(nil), groundPoint(), nil)
	// ambient 0 (light ambient black) + diffuse 1·1·cos0
	want := core.Color{R: 1, G: 1, B: 1, A: 1}
	if !approxColor(got, want, 1e-5) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestShadeShadowKeepsAmbient(t *testing.T) {
	exp := overheadExport(func(p *LightParams) { p.Ambient = core.Gray(0.5) })
	pt := groundPoint()

	lit := Shade(exp, pt, func(int) float32 { return 1 })
	dark := Shade(exp, pt, func(int) float32 { return 0 })

	// material ambient 0.2 × light ambient 0.5
	want := core.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}
	if !approxColor(dark, want, 1e-5) {
		t.Errorf("shadowed: expected %v, got %v", want, dark)
	}
	if lit.R <= dark.R {
		t.Errorf("lit %v should be brighter than shadowed %v", lit, dark)
	}
}

func TestShadeSpotCutoff(t *testing.T) {
	exp := overheadExport(func(p *LightParams) {
		p.Ambient = core.Gray(0.5)
		p.SpotDirection = math.NewVec3(1, 0, 0) // pointing away from the fragment
		p.SpotCutoff = 20
		p.Specular = core.ColorWhite
	})
	pt := groundPoint()
	pt.Material.Specular = core.ColorWhite
	pt.Material.Shininess = 8

	got := Shade(exp, pt, nil)
	if !approxColor(got, core.ColorBlack, 1e-6) {
		t.Errorf("fragment outside the cone must get nothing from the light, got %v", got)
	}

	dir := math.NewVec3(0, 1, 0)
	if f := SpotFactor(exp.Lights[0].LightParams, dir); f != 0 {
		t.Errorf("SpotFactor outside cutoff: expected 0, got %v", f)
	}
}

func TestShadeAttenuation(t *testing.T) {
	near := Shade(overheadExport(func(p *LightParams) { p.Attenuation = math.NewVec3(1, 0, 0) }), groundPoint(), nil)
	far := Shade(overheadExport(func(p *LightParams) { p.Attenuation = math.NewVec3(1, 0.1, 0) }), groundPoint(), nil)
	// distance 10: 1 / (1 + 0.1·10) = 0.5
	if d := far.R - near.R*0.5; d > 1e-5 || d < -1e-5 {
		t.Errorf("expected half intensity, got %v (unattenuated %v)", far.R, near.R)
	}
}

func TestShadeGlobalSwitchOff(t *testing.T) {
	exp := overheadExport(nil)
	exp.Enabled = false
	pt := groundPoint()
	pt.Material = NewMaterial("red", core.Color{R: 1, A: 1})
	pt.Texel = core.Gray(0.5)

	got := Shade(exp, pt, func(int) float32 { return 0 })
	want := core.Color{R: 0.5, A: 1}
	if !approxColor(got, want, 1e-6) {
		t.Errorf("unlit: expected %v, got %v", want, got)
	}
}
