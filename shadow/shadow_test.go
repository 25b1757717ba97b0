package shadow

import (
	"slices"
	"testing"

	"shadow-engine/math"
	"shadow-engine/scene"
)

// occluderScene is a point light at (0,500,0) over a ground plane at y=0
// with a 100×100 slab floating at y=100 between them.
type occluderScene struct {
	cam         *scene.Camera
	light       scene.LightParams
	ground      *scene.Geometry
	slab        *scene.Geometry
	groundModel math.Mat4
}

func newOccluderScene(t testing.TB) *occluderScene {
	t.Helper()
	cam, err := scene.NewPerspectiveCamera(
		math.NewVec3(0, 500, 0), math.Vec3Zero, math.NewVec3(0, 0, 1),
		60, 100, 1000, 512, 512)
	if err != nil {
		t.Fatalf("light camera: %v", err)
	}
	light := scene.DefaultLightParams()
	light.Position = math.NewVec4(0, 500, 0, 1)
	if err := AimLightCamera(cam, light, PointLight, math.Vec3Zero); err != nil {
		t.Fatalf("AimLightCamera: %v", err)
	}

	ground, err := scene.GroundPlane(1000).Geometry(scene.DrawTriangles)
	if err != nil {
		t.Fatal(err)
	}
	slab, err := scene.Box(math.NewVec3(-50, 95, -50), math.NewVec3(50, 105, 50)).Geometry(scene.DrawTriangles)
	if err != nil {
		t.Fatal(err)
	}
	return &occluderScene{
		cam:         cam,
		light:       light,
		ground:      ground,
		slab:        slab,
		groundModel: math.Mat4Translation(math.NewVec3(-500, 0, -500)),
	}
}

func (s *occluderScene) render() (*DepthMap, math.Mat4) {
	lightVP := LightViewProjection(s.cam)
	dm := NewDepthMap(512, 512)
	dm.DrawGeometry(s.ground, s.groundModel.Mul(lightVP), DefaultDepthBias)
	dm.DrawGeometry(s.slab, lightVP, DefaultDepthBias)
	return dm, lightVP
}

func TestOccluderShadowsGround(t *testing.T) {
	s := newOccluderScene(t)
	dm, lightVP := s.render()

	tests := []struct {
		name  string
		point math.Vec3
		want  float32
	}{
		{"under occluder", math.NewVec3(0, 0, 0), 0},
		{"under occluder edge", math.NewVec3(40, 0, -40), 0},
		{"outside silhouette", math.NewVec3(200, 0, 0), 1},
		{"outside light frustum", math.NewVec3(400, 0, 400), 1},
		{"occluder top", math.NewVec3(0, 105, 0), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Visibility(dm, lightVP, tt.point, DefaultShaderBias)
			if got != tt.want {
				t.Errorf("Visibility(%v): expected %v, got %v", tt.point, tt.want, got)
			}
		})
	}

	if v := VisibilityPCF(dm, lightVP, math.Vec3Zero, DefaultShaderBias, 1.0/512); v != 0 {
		t.Errorf("PCF under occluder: expected 0, got %v", v)
	}
	if v := VisibilityPCF(dm, lightVP, math.NewVec3(200, 0, 0), DefaultShaderBias, 1.0/512); v != 1 {
		t.Errorf("PCF outside silhouette: expected 1, got %v", v)
	}
}

func TestDepthPassIsDeterministic(t *testing.T) {
	s := newOccluderScene(t)
	first, _ := s.render()
	second, _ := s.render()
	if !slices.Equal(first.Depths(), second.Depths()) {
		t.Error("two depth passes over the same scene must be bit-identical")
	}

	first.Clear()
	for i, z := range first.Depths() {
		if z != 1 {
			t.Fatalf("Clear: texel %d is %v", i, z)
		}
	}
}

func TestDepthBiasPushesDepthAway(t *testing.T) {
	s := newOccluderScene(t)
	lightVP := LightViewProjection(s.cam)

	plain := NewDepthMap(64, 64)
	plain.DrawGeometry(s.ground, s.groundModel.Mul(lightVP), DepthBias{})
	biased := NewDepthMap(64, 64)
	biased.DrawGeometry(s.ground, s.groundModel.Mul(lightVP), DepthBias{Slope: 0, Constant: 1 << 10})

	a, b := plain.At(32, 32), biased.At(32, 32)
	if want := a + (1<<10)*depthUnit; b-want > 1e-6 || want-b > 1e-6 {
		t.Errorf("constant bias: expected %v, got %v (unbiased %v)", want, b, a)
	}
	if got := (DepthBias{Slope: 2}).Apply(0.99, 1); got != 1 {
		t.Errorf("biased depth must clamp to 1, got %v", got)
	}
}

func TestOutsideMapIsLit(t *testing.T) {
	dm := NewDepthMap(4, 4)
	for i := range dm.Depths() {
		dm.Depths()[i] = 0
	}
	// everything in the map occludes, but this point projects past u=1
	vp := math.Mat4Orthographic(-1, 1, -1, 1, -1, 1)
	if v := Visibility(dm, vp, math.NewVec3(2, 0, 0), 0); v != 1 {
		t.Errorf("expected lit outside the map, got %v", v)
	}
	if v := Visibility(dm, vp, math.NewVec3(0, 0, 0), 0); v != 0 {
		t.Errorf("expected shadow inside the map, got %v", v)
	}
	if dm.Sample(-0.1, 0.5) != 1 || dm.At(4, 0) != 1 {
		t.Error("reads outside the map should return the border depth 1")
	}
}

func TestRasterizeCoversTarget(t *testing.T) {
	// a triangle three times the screen covers every pixel once
	clip := [3]math.Vec4{
		{X: -1, Y: -1, Z: 0, W: 1},
		{X: 3, Y: -1, Z: 0, W: 1},
		{X: -1, Y: 3, Z: 0, W: 1},
	}
	seen := make(map[[2]int]int)
	Rasterize(clip, 8, 6, func(f Fragment) {
		seen[[2]int{f.X, f.Y}]++
		sum := f.Bary.X + f.Bary.Y + f.Bary.Z
		if sum < 0.999 || sum > 1.001 {
			t.Errorf("weights at (%d,%d) sum to %v", f.X, f.Y, sum)
		}
		if d := f.Depth - 0.5; d > 1e-6 || d < -1e-6 {
			t.Errorf("depth at (%d,%d): expected 0.5, got %v", f.X, f.Y, f.Depth)
		}
	})
	if len(seen) != 8*6 {
		t.Errorf("expected %d pixels, got %d", 8*6, len(seen))
	}
	for p, n := range seen {
		if n != 1 {
			t.Errorf("pixel %v drawn %d times", p, n)
		}
	}
}

func TestRasterizeClipsNearPlane(t *testing.T) {
	cam, err := scene.NewPerspectiveCamera(math.NewVec3(0, 0, 10), math.Vec3Zero, math.Vec3Up, 60, 1, 100, 32, 32)
	if err != nil {
		t.Fatal(err)
	}
	vp := cam.ViewProjection()
	// one corner sits behind the eye
	tri := [3]math.Vec3{{X: -5, Y: -1, Z: 0}, {X: 5, Y: -1, Z: 0}, {X: 0, Y: -1, Z: 20}}
	var clip [3]math.Vec4
	for i, p := range tri {
		clip[i] = p.ToVec4(1).MulMat(vp)
	}

	n := 0
	Rasterize(clip, 32, 32, func(f Fragment) {
		n++
		if f.Depth < 0 || f.Depth > 1 {
			t.Errorf("fragment depth %v outside [0,1]", f.Depth)
		}
		if f.Bary.X < -1e-4 || f.Bary.Y < -1e-4 || f.Bary.Z < -1e-4 {
			t.Errorf("negative weight %v", f.Bary)
		}
	})
	if n == 0 {
		t.Error("the visible part of the triangle should still be drawn")
	}

	behind := [3]math.Vec4{{Z: -2, W: 1}, {X: 1, Z: -2, W: 1}, {Y: 1, Z: -2, W: 1}}
	Rasterize(behind, 32, 32, func(Fragment) { t.Error("triangle behind the near plane must be dropped") })
}

func TestOrbitReturnsExactly(t *testing.T) {
	o := NewOrbit(1024, 200, math.NewVec3(256, 0, 256), 360)
	start := o.Position()
	if !start.ApproxEqual(math.NewVec3(1280, 200, 256), 1e-3) {
		t.Fatalf("start position: %v", start)
	}

	for i := 0; i < 36000; i++ {
		o.Advance(1)
	}
	if got := o.Position(); got != start {
		t.Errorf("after 100 turns: expected %v exactly, got %v", start, got)
	}

	o.Advance(90)
	if got := o.Position(); !got.ApproxEqual(math.NewVec3(256, 200, 1280), 1e-3) {
		t.Errorf("quarter turn: %v", got)
	}
	o.Advance(-91)
	if o.Step() != 359 {
		t.Errorf("negative advance should wrap to 359, got %d", o.Step())
	}
}

func TestAimLightCamera(t *testing.T) {
	cam, err := scene.NewPerspectiveCamera(math.NewVec3(0, 10, 10), math.Vec3Zero, math.Vec3Up, 60, 1, 100, 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	l := scene.DefaultLightParams()
	l.Position = math.NewVec4(10, 20, 0, 1)
	l.SpotDirection = math.NewVec3(0, -1, 0)
	l.SpotCutoff = 30

	anchor := math.NewVec3(5, 0, 5)
	if err := AimLightCamera(cam, l, PointLight, anchor); err != nil {
		t.Fatal(err)
	}
	if cam.Eye() != math.NewVec3(10, 20, 0) || cam.Target() != anchor {
		t.Errorf("point light: eye %v target %v", cam.Eye(), cam.Target())
	}

	if err := AimLightCamera(cam, l, SpotLight, anchor); err != nil {
		t.Fatal(err)
	}
	if !cam.Forward().ApproxEqual(math.NewVec3(0, -1, 0), 1e-6) {
		t.Errorf("spot light should look along its direction, got %v", cam.Forward())
	}
	if cam.Up() != math.NewVec3(0, 0, 1) {
		t.Errorf("vertical view should switch up to +Z, got %v", cam.Up())
	}
	if LightViewProjection(cam) != cam.ViewProjection() {
		t.Error("light view-projection must be view followed by projection")
	}

	if k, err := ParseLightKind("Spot"); err != nil || k != SpotLight {
		t.Errorf("ParseLightKind: %v %v", k, err)
	}
	if k, err := ParseLightKind(""); err != nil || k != PointLight {
		t.Errorf("empty kind should default to point, got %v %v", k, err)
	}
	if _, err := ParseLightKind("area"); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func BenchmarkDepthPass(b *testing.B) {
	s := newOccluderScene(b)
	lightVP := LightViewProjection(s.cam)
	dm := NewDepthMap(1024, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dm.Clear()
		dm.DrawGeometry(s.ground, s.groundModel.Mul(lightVP), DefaultDepthBias)
		dm.DrawGeometry(s.slab, lightVP, DefaultDepthBias)
	}
}
