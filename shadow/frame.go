package shadow

import (
	"shadow-engine/math"
	"shadow-engine/scene"
)

// Frame is the per-frame state the shading pass consumes. LightViewProjection
// is the matrix the depth pass of the same frame was rendered with.
type Frame struct {
	View                math.Mat4
	Projection          math.Mat4
	LightViewProjection math.Mat4
	LightIndex          int
	Lighting            scene.LightingExport
	Eye                 math.Vec3
	ShaderBias          float32
	PCF                 bool
	ClearColor          [4]float32
}

// ViewProjection returns View followed by Projection.
func (f *Frame) ViewProjection() math.Mat4 {
	return f.View.Mul(f.Projection)
}

// MVP returns the model-view-projection for model.
func (f *Frame) MVP(model math.Mat4) math.Mat4 {
	return model.Mul(f.View).Mul(f.Projection)
}

// Visibility builds the per-light visibility function for the fragment at
// world: only the shadow light is tested against s, every other light is
// unshadowed.
func (f *Frame) Visibility(s DepthSampler, texelSize float32, world math.Vec3) scene.VisibilityFunc {
	return func(index int) float32 {
		if index != f.LightIndex {
			return 1
		}
		if f.PCF {
			return VisibilityPCF(s, f.LightViewProjection, world, f.ShaderBias, texelSize)
		}
		return Visibility(s, f.LightViewProjection, world, f.ShaderBias)
	}
}
