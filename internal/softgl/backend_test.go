package softgl

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"shadow-engine/math"
	"shadow-engine/scene"
	"shadow-engine/shadow"
)

const (
	testWidth  = 160
	testHeight = 120
)

type testScene struct {
	cam     *scene.Camera
	light   *scene.Camera
	lights  *scene.LightRegistry
	objects []*scene.Object
}

// newTestScene places a light at (0,500,0) over a ground plane, with a slab
// at y=100 casting a shadow around the origin. The main camera looks at the
// origin from the side so the shadow is not hidden behind the slab.
func newTestScene(t *testing.T) *testScene {
	t.Helper()
	cam, err := scene.NewPerspectiveCamera(
		math.NewVec3(300, 400, 0), math.Vec3Zero, math.Vec3Up,
		60, 1, 2000, testWidth, testHeight)
	if err != nil {
		t.Fatal(err)
	}
	lightCam, err := scene.NewPerspectiveCamera(
		math.NewVec3(0, 500, 0), math.Vec3Zero, math.NewVec3(0, 0, 1),
		60, 100, 1000, 512, 512)
	if err != nil {
		t.Fatal(err)
	}

	reg := scene.NewLightRegistry()
	params := scene.DefaultLightParams()
	params.Position = math.NewVec4(0, 500, 0, 1)
	reg.AddLight(params)

	ground := scene.NewObject("ground")
	if err := ground.SetGeometry(scene.DrawTriangles, scene.GroundPlane(1000).Positions, scene.GroundPlane(1000).Normals, nil, ""); err != nil {
		t.Fatal(err)
	}
	ground.Model = math.Mat4Translation(math.NewVec3(-500, 0, -500))

	slabMesh := scene.Box(math.NewVec3(-50, 95, -50), math.NewVec3(50, 105, 50))
	slab := scene.NewObject("slab")
	if err := slab.SetGeometry(scene.DrawTriangles, slabMesh.Positions, slabMesh.Normals, slabMesh.UVs, ""); err != nil {
		t.Fatal(err)
	}

	return &testScene{cam: cam, light: lightCam, lights: reg, objects: []*scene.Object{ground, slab}}
}

func (s *testScene) render(b *Backend) {
	lightVP := shadow.LightViewProjection(s.light)

	b.BeginDepthPass(shadow.DefaultDepthBias)
	for _, o := range s.objects {
		b.DrawDepth(o, o.Model.Mul(lightVP))
	}
	b.EndDepthPass()

	frame := &shadow.Frame{
		View:                s.cam.ViewMatrix(),
		Projection:          s.cam.ProjectionMatrix(),
		LightViewProjection: lightVP,
		Lighting:            s.lights.Export(),
		Eye:                 s.cam.Eye(),
		ShaderBias:          shadow.DefaultShaderBias,
		ClearColor:          [4]float32{0, 0, 0, 1},
	}
	b.BeginShadingPass(frame)
	for _, o := range s.objects {
		b.DrawShaded(o, o.Model, frame.MVP(o.Model))
	}
	b.EndShadingPass()
}

// pixelOf returns the image coordinates of a world point.
func (s *testScene) pixelOf(t *testing.T, p math.Vec3) (int, int) {
	t.Helper()
	ndc, ok := p.ToVec4(1).MulMat(s.cam.ViewProjection()).PerspectiveDivide()
	if !ok {
		t.Fatalf("%v projects to w=0", p)
	}
	x := int((ndc.X*0.5 + 0.5) * testWidth)
	y := int((ndc.Y*0.5 + 0.5) * testHeight)
	return x, testHeight - 1 - y
}

func newTestBackend(t *testing.T, workers, band int) *Backend {
	t.Helper()
	b, err := New(Options{Width: testWidth, Height: testHeight, ShadowMapSize: 512, Workers: workers, BandHeight: band})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(b.Release)
	return b
}

func TestShadowDarkensGroundUnderOccluder(t *testing.T) {
	s := newTestScene(t)
	b := newTestBackend(t, 4, 16)
	s.render(b)

	img := b.Image()
	sx, sy := s.pixelOf(t, math.Vec3Zero)
	lx, ly := s.pixelOf(t, math.NewVec3(-200, 0, 0))

	shadowed := img.RGBAAt(sx, sy)
	lit := img.RGBAAt(lx, ly)
	if shadowed.R > 40 {
		t.Errorf("ground under the slab should be ambient only, got %v", shadowed)
	}
	if lit.R < 150 {
		t.Errorf("ground outside the shadow should be lit, got %v", lit)
	}
	if b.Frames() != 1 {
		t.Errorf("expected 1 frame, got %d", b.Frames())
	}
}

func TestShadingIsIndependentOfBanding(t *testing.T) {
	s := newTestScene(t)
	one := newTestBackend(t, 1, 1000)
	many := newTestBackend(t, 8, 7)
	s.render(one)
	s.render(many)

	if !bytes.Equal(one.Image().Pix, many.Image().Pix) {
		t.Error("band split must not change the rendered image")
	}
}

func TestLightsOffIgnoresShadow(t *testing.T) {
	s := newTestScene(t)
	s.lights.SetGlobalSwitch(false)
	b := newTestBackend(t, 2, 16)
	s.render(b)

	sx, sy := s.pixelOf(t, math.Vec3Zero)
	lx, ly := s.pixelOf(t, math.NewVec3(-200, 0, 0))
	if a, c := b.Image().RGBAAt(sx, sy), b.Image().RGBAAt(lx, ly); a != c {
		t.Errorf("with lighting off both points show the plain diffuse colour, got %v and %v", a, c)
	}
}

func TestWritePNG(t *testing.T) {
	s := newTestScene(t)
	b := newTestBackend(t, 2, 16)
	s.render(b)

	dir := t.TempDir()
	full := filepath.Join(dir, "full.png")
	half := filepath.Join(dir, "half.png")
	if err := b.WritePNG(full, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.WritePNG(half, testWidth/2); err != nil {
		t.Fatal(err)
	}

	for path, want := range map[string][2]int{full: {testWidth, testHeight}, half: {testWidth / 2, testHeight / 2}} {
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := png.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if cfg.Width != want[0] || cfg.Height != want[1] {
			t.Errorf("%s: expected %dx%d, got %dx%d", filepath.Base(path), want[0], want[1], cfg.Width, cfg.Height)
		}
	}
}

func TestNewRejectsBadSize(t *testing.T) {
	if _, err := New(Options{Width: 0, Height: 10, ShadowMapSize: 16}); err == nil {
		t.Error("expected an error for zero width")
	}
	if _, err := New(Options{Width: 10, Height: 10}); err == nil {
		t.Error("expected an error for a missing shadow map size")
	}
}

func TestReleaseEndsWorkers(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 10; i++ {
		b, err := New(Options{Width: 32, Height: 32, ShadowMapSize: 64, Workers: 4, BandHeight: 8})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		newTestScene(t).render(b)
		b.Release()
		b.Release()
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := runtime.NumGoroutine(); got > before {
		t.Errorf("goroutines: expected at most %d after release, got %d", before, got)
	}
}
