package scene

import (
	"fmt"

	"shadow-engine/core"
	"shadow-engine/math"
)

// Scene owns the objects, the light registry and both cameras of a frame.
type Scene struct {
	Objects     []*Object
	Lights      *LightRegistry
	Camera      *Camera
	LightCamera *Camera
	ClearColor  core.Color
}

func NewScene(camera, lightCamera *Camera) *Scene {
	return &Scene{
		Lights:      NewLightRegistry(),
		Camera:      camera,
		LightCamera: lightCamera,
		ClearColor:  core.Gray(0.1),
	}
}

// NewSceneFromConfig builds cameras, lights and objects from cfg. The light
// camera starts at the shadow light looking at the anchor; objects that
// fail to load are skipped.
func NewSceneFromConfig(cfg *SceneConfig) (*Scene, error) {
	cam, err := NewCamera(cfg.Camera.CameraConfig(cfg.Width, cfg.Height))
	if err != nil {
		return nil, fmt.Errorf("main camera: %w", err)
	}

	lights := cfg.BuildLights()
	shadowLight, ok := lights.Light(cfg.Shadow.LightIndex)
	if !ok {
		return nil, fmt.Errorf("shadow light %d: no such light", cfg.Shadow.LightIndex)
	}
	lcfg := cfg.LightCamera.CameraConfig(cfg.Width, cfg.Height)
	lcfg.Eye = shadowLight.Position.ToVec3()
	lcfg.Target = vec3(cfg.Shadow.Anchor)
	lightCam, err := NewCamera(lcfg)
	if err != nil {
		return nil, fmt.Errorf("light camera: %w", err)
	}

	s := NewScene(cam, lightCam)
	s.Lights = lights
	s.ClearColor = core.ColorFromArray(cfg.ClearColor)
	for _, obj := range cfg.BuildObjects() {
		s.AddObject(obj)
	}
	core.Logger().Info("scene built", "name", cfg.Name, "objects", len(s.Objects), "lights", lights.Len())
	return s, nil
}

func (s *Scene) AddObject(obj *Object) {
	s.Objects = append(s.Objects, obj)
}

// RemoveObject detaches obj and releases its resources.
func (s *Scene) RemoveObject(obj *Object) bool {
	for i, o := range s.Objects {
		if o == obj {
			s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
			obj.Release()
			return true
		}
	}
	return false
}

// Find returns the first object with the given name.
func (s *Scene) Find(name string) *Object {
	for _, o := range s.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// VisibleObjects returns the drawable objects whose bounds intersect the
// volume of vp.
func (s *Scene) VisibleObjects(vp math.Mat4) []*Object {
	f := FrustumFromVP(vp)
	var out []*Object
	for _, o := range s.Objects {
		if !o.Visible || o.Geometry == nil {
			continue
		}
		box := ComputeAABB(o.Geometry, o.Model)
		if box.IntersectsFrustum(&f) {
			out = append(out, o)
		}
	}
	return out
}

// ShadowCasters returns the visible objects that write into the shadow map.
func (s *Scene) ShadowCasters(lightVP math.Mat4) []*Object {
	var out []*Object
	for _, o := range s.VisibleObjects(lightVP) {
		if o.CastsShadow {
			out = append(out, o)
		}
	}
	return out
}

// Release frees every object.
func (s *Scene) Release() {
	for _, o := range s.Objects {
		o.Release()
	}
}
