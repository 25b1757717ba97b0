package scene

import (
	"testing"

	"shadow-engine/math"
)

func TestScreenRayThroughCenter(t *testing.T) {
	cam, err := NewPerspectiveCamera(math.NewVec3(0, 0, 10), math.Vec3Zero, math.Vec3Up, 60, 1, 100, 200, 100)
	if err != nil {
		t.Fatal(err)
	}
	r := cam.ScreenRay(100, 50)
	if !r.Direction.ApproxEqual(math.NewVec3(0, 0, -1), 1e-5) {
		t.Errorf("center ray: expected -Z, got %v", r.Direction)
	}
	// top edge of the window is half the vertical FOV above the axis
	top := cam.ScreenRay(100, 0)
	if top.Direction.Y <= 0 {
		t.Errorf("top ray should point up, got %v", top.Direction)
	}
	if got := top.Direction.Dot(r.Direction); got < 0.8659 || got > 0.8663 {
		t.Errorf("top ray angle: expected cos 30° ≈ 0.866, got %v", got)
	}

	ortho, err := NewOrthographicCamera(math.NewVec3(0, 0, 10), math.Vec3Zero, math.Vec3Up, 5, 1, 100, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	or := ortho.ScreenRay(100, 50)
	if !or.Origin.ApproxEqual(math.NewVec3(5, 0, 10), 1e-5) || !or.Direction.ApproxEqual(math.NewVec3(0, 0, -1), 1e-5) {
		t.Errorf("ortho edge ray: %+v", or)
	}
}

func TestPickNearestObject(t *testing.T) {
	cam, err := NewPerspectiveCamera(math.NewVec3(0, 0, 10), math.Vec3Zero, math.Vec3Up, 60, 1, 100, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	s := NewScene(cam, cam)

	boxMesh := Box(math.NewVec3(-1, -1, -1), math.NewVec3(1, 1, 1))
	near := NewObject("near")
	far := NewObject("far")
	for _, o := range []*Object{far, near} {
		if err := o.SetGeometry(DrawTriangles, boxMesh.Positions, boxMesh.Normals, nil, ""); err != nil {
			t.Fatal(err)
		}
		s.AddObject(o)
	}
	near.Model = math.Mat4Translation(math.NewVec3(0, 0, 2))
	far.Model = math.Mat4Translation(math.NewVec3(0, 0, -4))

	hit, ok := s.Pick(cam.ScreenRay(50, 50))
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Object != near {
		t.Errorf("expected the near box, got %q", hit.Object.Name)
	}
	if d := hit.Distance - 7; d > 1e-4 || d < -1e-4 {
		t.Errorf("distance: expected 7, got %v", hit.Distance)
	}
	if !hit.Point.ApproxEqual(math.NewVec3(0, 0, 3), 1e-4) {
		t.Errorf("point: %v", hit.Point)
	}

	near.Visible = false
	if hit, ok := s.Pick(cam.ScreenRay(50, 50)); !ok || hit.Object != far {
		t.Errorf("hidden objects must be skipped, got %+v", hit)
	}
	if _, ok := s.Pick(cam.ScreenRay(0, 0)); ok {
		t.Error("corner ray should miss both boxes")
	}
}
