package renderer

import (
	"errors"
	"fmt"

	"shadow-engine/core"
	"shadow-engine/math"
	"shadow-engine/scene"
	"shadow-engine/shadow"
)

// ErrNoShadowLight is returned when the configured light index does not
// name a light in the registry.
var ErrNoShadowLight = errors.New("shadow light not in registry")

// OrbitConfig describes the circular path of an orbiting light.
type OrbitConfig struct {
	Radius       float32
	Height       float32
	Center       math.Vec3
	StepsPerTurn int
}

// Config selects the pipeline variant.
type Config struct {
	LightKind     shadow.LightKind
	DepthBias     shadow.DepthBias
	ShaderBias    float32
	PCF           bool
	OrbitEnabled  bool
	Orbit         OrbitConfig
	ShadowMapSize int
	LightIndex    int
	Anchor        math.Vec3

	// FrustumCulling skips objects outside the light volume in the depth
	// pass and outside the main view in the shading pass.
	FrustumCulling bool
}

func DefaultConfig() Config {
	return Config{
		LightKind:     shadow.PointLight,
		DepthBias:     shadow.DefaultDepthBias,
		ShaderBias:    shadow.DefaultShaderBias,
		OrbitEnabled:  true,
		Orbit:         OrbitConfig{Radius: 1024, Height: 200, Center: math.NewVec3(256, 0, 256), StepsPerTurn: 628},
		ShadowMapSize: 2048,
		Anchor:        math.NewVec3(256, 0, 10),

		FrustumCulling: true,
	}
}

// ConfigFromScene reads the pipeline settings of a scene file.
func ConfigFromScene(sc *scene.SceneConfig) (Config, error) {
	kind, err := shadow.ParseLightKind(sc.Shadow.LightKind)
	if err != nil {
		return Config{}, err
	}
	s := sc.Shadow
	return Config{
		LightKind:     kind,
		DepthBias:     shadow.DepthBias{Slope: s.Slope, Constant: s.Constant},
		ShaderBias:    s.ShaderBias,
		PCF:           s.PCF,
		OrbitEnabled:  s.Orbit.Enabled,
		ShadowMapSize: s.MapSize,
		LightIndex:    s.LightIndex,
		Anchor:        math.NewVec3(s.Anchor[0], s.Anchor[1], s.Anchor[2]),
		Orbit: OrbitConfig{
			Radius:       s.Orbit.Radius,
			Height:       s.Orbit.Height,
			Center:       math.NewVec3(s.Orbit.Center[0], s.Orbit.Center[1], s.Orbit.Center[2]),
			StepsPerTurn: s.Orbit.StepsPerTurn,
		},
		FrustumCulling: s.FrustumCulling,
	}, nil
}

// Stats counts the work of the last frame.
type Stats struct {
	Casters int
	Drawn   int
	Culled  int
}

// Renderer runs the shadow-mapping frame loop over a Backend. It owns the
// scene: cameras, lights and objects.
type Renderer struct {
	backend Backend
	scene   *scene.Scene
	cfg     Config
	orbit   *shadow.Orbit

	lightVP math.Mat4
	frame   shadow.Frame
	stats   Stats
	frames  int
}

// New validates cfg against s and sizes the light camera to the shadow map.
func New(backend Backend, s *scene.Scene, cfg Config) (*Renderer, error) {
	if s == nil || s.Camera == nil || s.LightCamera == nil {
		return nil, errors.New("renderer: scene needs a camera and a light camera")
	}
	if _, ok := s.Lights.Light(cfg.LightIndex); !ok {
		return nil, fmt.Errorf("renderer: light %d of %d: %w", cfg.LightIndex, s.Lights.Len(), ErrNoShadowLight)
	}
	if cfg.ShadowMapSize <= 0 {
		return nil, fmt.Errorf("renderer: shadow map size %d must be positive", cfg.ShadowMapSize)
	}
	s.LightCamera.UpdateViewportSize(cfg.ShadowMapSize, cfg.ShadowMapSize)

	r := &Renderer{
		backend: backend,
		scene:   s,
		cfg:     cfg,
		lightVP: math.Mat4Identity(),
	}
	if cfg.OrbitEnabled {
		o := cfg.Orbit
		r.orbit = shadow.NewOrbit(o.Radius, o.Height, o.Center, o.StepsPerTurn)
	}
	core.Logger().Info("renderer ready",
		"light_kind", cfg.LightKind, "light_index", cfg.LightIndex,
		"shadow_map", cfg.ShadowMapSize, "orbit", cfg.OrbitEnabled, "pcf", cfg.PCF)
	return r, nil
}

func (r *Renderer) Scene() *scene.Scene  { return r.scene }
func (r *Renderer) Config() Config       { return r.cfg }
func (r *Renderer) Orbit() *shadow.Orbit { return r.orbit }
func (r *Renderer) Stats() Stats         { return r.stats }
func (r *Renderer) FrameCount() int      { return r.frames }
func (r *Renderer) Frame() shadow.Frame  { return r.frame }
func (r *Renderer) Backend() Backend     { return r.backend }
func (r *Renderer) SetPCF(on bool)       { r.cfg.PCF = on }
func (r *Renderer) IsOrbiting() bool     { return r.cfg.OrbitEnabled }

// LightViewProjection returns the matrix the last depth pass used.
func (r *Renderer) LightViewProjection() math.Mat4 { return r.lightVP }

// SetDepthBias changes the polygon offset from the next frame on.
func (r *Renderer) SetDepthBias(b shadow.DepthBias) { r.cfg.DepthBias = b }

// RenderFrame runs one frame: orbit update, depth pass, shading pass. The
// light view-projection computed for the depth pass is reused unchanged by
// the shading pass.
func (r *Renderer) RenderFrame() error {
	s := r.scene
	idx := r.cfg.LightIndex

	if r.cfg.OrbitEnabled && r.orbit != nil {
		s.Lights.SetPosition(idx, r.orbit.Position().ToVec4(1))
	}

	light, ok := s.Lights.Light(idx)
	if !ok {
		return fmt.Errorf("render frame: light %d: %w", idx, ErrNoShadowLight)
	}
	if err := shadow.AimLightCamera(s.LightCamera, light.LightParams, r.cfg.LightKind, r.cfg.Anchor); err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	r.lightVP = shadow.LightViewProjection(s.LightCamera)
	stats := Stats{}

	r.backend.BeginDepthPass(r.cfg.DepthBias)
	for _, o := range r.casters() {
		r.backend.DrawDepth(o, o.Model.Mul(r.lightVP))
		stats.Casters++
	}
	r.backend.EndDepthPass()

	r.frame = shadow.Frame{
		View:                s.Camera.ViewMatrix(),
		Projection:          s.Camera.ProjectionMatrix(),
		LightViewProjection: r.lightVP,
		LightIndex:          idx,
		Lighting:            s.Lights.Export(),
		Eye:                 s.Camera.Eye(),
		ShaderBias:          r.cfg.ShaderBias,
		PCF:                 r.cfg.PCF,
		ClearColor:          s.ClearColor.Array(),
	}
	r.backend.BeginShadingPass(&r.frame)
	visible := r.visible(r.frame.ViewProjection())
	for _, o := range visible {
		r.backend.DrawShaded(o, o.Model, r.frame.MVP(o.Model))
	}
	r.backend.EndShadingPass()

	stats.Drawn = len(visible)
	stats.Culled = len(s.Objects) - len(visible)
	r.stats = stats
	r.frames++
	core.Logger().Debug("frame",
		"n", r.frames, "casters", stats.Casters, "drawn", stats.Drawn, "culled", stats.Culled,
		"light", light.Position)
	return nil
}

// SetOrbiting starts or pauses the light orbit. Pausing keeps the current
// step; the light stays where it is.
func (r *Renderer) SetOrbiting(on bool) {
	if on && r.orbit == nil {
		o := r.cfg.Orbit
		r.orbit = shadow.NewOrbit(o.Radius, o.Height, o.Center, o.StepsPerTurn)
	}
	r.cfg.OrbitEnabled = on
}

// Advance moves the orbiting light one step.
func (r *Renderer) Advance() {
	if r.cfg.OrbitEnabled && r.orbit != nil {
		r.orbit.Advance(1)
	}
}

func (r *Renderer) casters() []*scene.Object {
	if r.cfg.FrustumCulling {
		return r.scene.ShadowCasters(r.lightVP)
	}
	var out []*scene.Object
	for _, o := range r.scene.Objects {
		if o.Visible && o.CastsShadow && o.Geometry != nil {
			out = append(out, o)
		}
	}
	return out
}

func (r *Renderer) visible(vp math.Mat4) []*scene.Object {
	if r.cfg.FrustumCulling {
		return r.scene.VisibleObjects(vp)
	}
	var out []*scene.Object
	for _, o := range r.scene.Objects {
		if o.Visible && o.Geometry != nil {
			out = append(out, o)
		}
	}
	return out
}

// Resize updates the main camera and the backend's colour target.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.scene.Camera.UpdateViewportSize(width, height)
	r.backend.Resize(width, height)
}

// Release frees the scene's GPU resources, then the backend.
func (r *Renderer) Release() {
	r.scene.Release()
	r.backend.Release()
}
