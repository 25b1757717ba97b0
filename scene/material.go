package scene

import "shadow-engine/core"

// Material holds the Phong surface colors of an object.
type Material struct {
	Name      string
	Emission  core.Color
	Ambient   core.Color
	Diffuse   core.Color
	Specular  core.Color
	Shininess float32
}

// DefaultMaterial returns the fixed-function defaults: grey ambient,
// light grey diffuse, no specular and no emission.
func DefaultMaterial() *Material {
	return &Material{
		Name:     "Default",
		Emission: core.ColorBlack,
		Ambient:  core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1},
		Diffuse:  core.Color{R: 0.8, G: 0.8, B: 0.8, A: 1},
		Specular: core.ColorBlack,
	}
}

// NewMaterial returns the default material with the given diffuse color.
func NewMaterial(name string, diffuse core.Color) *Material {
	m := DefaultMaterial()
	m.Name = name
	m.Diffuse = diffuse
	return m
}

// Texture units used by the shading program.
const (
	DiffuseTextureUnit = 0
	ShadowTextureUnit  = 1
)

// MaterialTarget receives an object's material and texture bindings.
type MaterialTarget interface {
	SetMaterial(m *Material)
	BindTexture(unit int, tex *Texture)
}

// TextureUnit maps the i-th texture of an object to a unit, skipping the
// unit reserved for the shadow map.
func TextureUnit(i int) int {
	if i >= ShadowTextureUnit {
		return i + 1
	}
	return i
}
