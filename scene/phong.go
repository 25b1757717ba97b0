package scene

import (
	gomath "math"

	"shadow-engine/core"
	"shadow-engine/math"
)

// SurfacePoint is one fragment to be lit.
type SurfacePoint struct {
	Position math.Vec3 // world space
	Normal   math.Vec3 // world space, need not be normalised
	Eye      math.Vec3 // viewer position
	Material *Material
	// Texel modulates the lit color. Use white for untextured surfaces.
	Texel core.Color
}

// VisibilityFunc reports how much of light index i reaches the fragment,
// from 0 (fully shadowed) to 1 (fully lit).
type VisibilityFunc func(index int) float32

// Shade evaluates the Phong lighting equation the shading program uses.
// A shadowed light keeps its ambient term and loses diffuse and specular.
// A nil visibility treats every light as unshadowed.
func Shade(export LightingExport, p SurfacePoint, visibility VisibilityFunc) core.Color {
	mat := p.Material
	if mat == nil {
		mat = DefaultMaterial()
	}
	if !export.Enabled {
		return mat.Diffuse.Mul(p.Texel).Clamp()
	}

	n := p.Normal.Normalize()
	v := p.Eye.Sub(p.Position).Normalize()

	color := mat.Emission.Add(export.GlobalAmbient.Mul(mat.Ambient))
	for _, l := range export.Lights {
		lightDir, atten := lightVector(l.LightParams, p.Position)
		spot := SpotFactor(l.LightParams, lightDir)
		if spot == 0 {
			continue
		}
		scale := atten * spot

		color = color.Add(l.Ambient.Mul(mat.Ambient).Scale(scale))

		vis := float32(1)
		if visibility != nil {
			vis = visibility(l.Index)
		}
		nDotL := n.Dot(lightDir)
		if nDotL <= 0 || vis <= 0 {
			continue
		}
		diffuse := l.Diffuse.Mul(mat.Diffuse).Scale(nDotL)

		h := lightDir.Add(v).Normalize()
		nDotH := float32(gomath.Max(float64(n.Dot(h)), 0))
		specPow := float32(gomath.Pow(float64(nDotH), float64(mat.Shininess)))
		specular := l.Specular.Mul(mat.Specular).Scale(specPow)

		color = color.Add(diffuse.Add(specular).Scale(scale * vis))
	}
	color = color.Mul(p.Texel)
	color.A = mat.Diffuse.A * p.Texel.A
	return color.Clamp()
}

// lightVector returns the unit vector from pos toward the light and the
// distance attenuation factor.
func lightVector(l LightParams, pos math.Vec3) (math.Vec3, float32) {
	if l.IsDirectional() {
		return l.Position.ToVec3().Normalize(), 1
	}
	toLight := l.Position.ToVec3().Sub(pos)
	d := toLight.Length()
	denom := l.Attenuation.X + l.Attenuation.Y*d + l.Attenuation.Z*d*d
	atten := float32(1)
	if denom > 0 {
		atten = 1 / denom
	}
	return toLight.Normalize(), atten
}

// SpotFactor returns the cone falloff for a fragment seen along lightDir
// (fragment toward light). Outside the cutoff angle it is exactly zero.
func SpotFactor(l LightParams, lightDir math.Vec3) float32 {
	if !l.IsSpot() {
		return 1
	}
	cosAngle := lightDir.Negate().Dot(l.SpotDirection.Normalize())
	if cosAngle < cosAngleDeg(l.SpotCutoff) {
		return 0
	}
	return float32(gomath.Pow(gomath.Max(float64(cosAngle), 0), float64(l.SpotExponent)))
}

// cosAngleDeg converts an angle in degrees to its cosine.
func cosAngleDeg(deg float32) float32 {
	return float32(gomath.Cos(float64(deg) * gomath.Pi / 180.0))
}
