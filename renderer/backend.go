package renderer

import (
	"shadow-engine/math"
	"shadow-engine/scene"
	"shadow-engine/shadow"
)

// Backend executes the two passes of a frame. Calls arrive strictly in the
// order BeginDepthPass, DrawDepth*, EndDepthPass, BeginShadingPass,
// DrawShaded*, EndShadingPass.
type Backend interface {
	// BeginDepthPass binds the shadow target, clears it to the far depth and
	// enables the polygon offset.
	BeginDepthPass(bias shadow.DepthBias)
	// DrawDepth renders obj's positions with the light-space MVP.
	DrawDepth(obj *scene.Object, lightMVP math.Mat4)
	EndDepthPass()

	// BeginShadingPass binds the default target and the shadow map for
	// comparison sampling, and pushes the frame-wide uniforms.
	BeginShadingPass(frame *shadow.Frame)
	DrawShaded(obj *scene.Object, model, mvp math.Mat4)
	EndShadingPass()

	Resize(width, height int)
	Release()
}
