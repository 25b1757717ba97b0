package shadow

// DepthBias is a polygon offset applied while writing the depth map:
// offset = Slope·m + Constant·r, where m is the triangle's depth slope in
// window space and r the smallest resolvable depth step.
type DepthBias struct {
	Slope    float32
	Constant float32
}

// depthUnit is r for a 24-bit depth target.
const depthUnit = 1.0 / (1 << 24)

// DefaultDepthBias matches the offset the demo scene is tuned for.
var DefaultDepthBias = DepthBias{Slope: 2, Constant: 4}

// DefaultShaderBias is subtracted from a fragment's light-space depth
// before comparing it with the map.
const DefaultShaderBias = 0.002

// Offset returns the depth offset for a triangle with the given slope.
func (b DepthBias) Offset(slope float32) float32 {
	return b.Slope*slope + b.Constant*depthUnit
}

// Apply offsets z and clamps the result to [0,1].
func (b DepthBias) Apply(z, slope float32) float32 {
	z += b.Offset(slope)
	switch {
	case z < 0:
		return 0
	case z > 1:
		return 1
	}
	return z
}
