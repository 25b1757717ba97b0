package shadow

import "shadow-engine/math"

// DepthSampler reads a stored light-space depth at a texture coordinate.
type DepthSampler interface {
	Sample(u, v float32) float32
}

// ProjectToShadowMap maps a world position into shadow-map texture space:
// x and y are texture coordinates and z is the fragment's own light depth,
// all in [0,1] when the point lies inside the light frustum. ok is false
// when the point is behind the light (w <= 0).
func ProjectToShadowMap(lightVP math.Mat4, world math.Vec3) (p math.Vec3, ok bool) {
	clip := world.ToVec4(1).MulMat(lightVP)
	if clip.W <= 0 {
		return math.Vec3{}, false
	}
	ndc, ok := clip.PerspectiveDivide()
	if !ok {
		return math.Vec3{}, false
	}
	return math.NewVec3(ndc.X*0.5+0.5, ndc.Y*0.5+0.5, ndc.Z*0.5+0.5), true
}

func outsideMap(p math.Vec3) bool {
	return p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 || p.Z < 0 || p.Z > 1
}

// Visibility returns 1 when world is lit by the light whose depth map is s
// and 0 when it is shadowed. Points that project outside the map, or lie
// behind the light, are lit.
func Visibility(s DepthSampler, lightVP math.Mat4, world math.Vec3, bias float32) float32 {
	p, ok := ProjectToShadowMap(lightVP, world)
	if !ok || outsideMap(p) {
		return 1
	}
	if s.Sample(p.X, p.Y) < p.Z-bias {
		return 0
	}
	return 1
}

// VisibilityPCF averages the comparison over the 3×3 texel neighbourhood
// of the projected point. texelSize is 1/map size.
func VisibilityPCF(s DepthSampler, lightVP math.Mat4, world math.Vec3, bias, texelSize float32) float32 {
	p, ok := ProjectToShadowMap(lightVP, world)
	if !ok || outsideMap(p) {
		return 1
	}
	ref := p.Z - bias
	var lit float32
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if s.Sample(p.X+float32(dx)*texelSize, p.Y+float32(dy)*texelSize) >= ref {
				lit++
			}
		}
	}
	return lit / 9
}
