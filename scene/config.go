package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shadow-engine/core"
	"shadow-engine/math"
)

// SceneConfig is the JSON description of a scene and its shadow settings.
// Relative asset paths resolve against the directory of the config file.
type SceneConfig struct {
	Name          string         `json:"name"`
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	ClearColor    [4]float32     `json:"clear_color"`
	GlobalAmbient [4]float32     `json:"global_ambient"`
	Camera        CameraJSON     `json:"camera"`
	LightCamera   CameraJSON     `json:"light_camera"`
	Lights        []LightJSON    `json:"lights"`
	Objects       []ObjectJSON   `json:"objects"`
	Shadow        ShadowSettings `json:"shadow"`

	baseDir string
}

type CameraJSON struct {
	Eye         [3]float32 `json:"eye"`
	Target      [3]float32 `json:"target"`
	Up          [3]float32 `json:"up"`
	Projection  string     `json:"projection"` // "perspective" or "orthographic"
	FOV         float32    `json:"fov"`
	OrthoExtent float32    `json:"ortho_extent,omitempty"`
	Near        float32    `json:"near"`
	Far         float32    `json:"far"`
}

type LightJSON struct {
	Position      [4]float32 `json:"position"`
	Ambient       [4]float32 `json:"ambient"`
	Diffuse       [4]float32 `json:"diffuse"`
	Specular      [4]float32 `json:"specular"`
	SpotDirection [3]float32 `json:"spot_direction"`
	SpotExponent  float32    `json:"spot_exponent"`
	SpotCutoff    float32    `json:"spot_cutoff"`
	Attenuation   [3]float32 `json:"attenuation"`
	Inactive      bool       `json:"inactive,omitempty"`
}

type MaterialJSON struct {
	Emission  [4]float32 `json:"emission"`
	Ambient   [4]float32 `json:"ambient"`
	Diffuse   [4]float32 `json:"diffuse"`
	Specular  [4]float32 `json:"specular"`
	Shininess float32    `json:"shininess"`
}

// ObjectJSON describes one object. Exactly one of Mesh or Primitive is set.
// Primitive is "ground", "box" or "sphere"; Size scales it.
type ObjectJSON struct {
	Name      string        `json:"name"`
	Mesh      string        `json:"mesh,omitempty"`
	Primitive string        `json:"primitive,omitempty"`
	Size      float32       `json:"size,omitempty"`
	Texture   string        `json:"texture,omitempty"`
	Position  [3]float32    `json:"position"`
	Rotation  [3]float32    `json:"rotation"` // degrees about X, Y, Z
	Scale     [3]float32    `json:"scale"`
	Material  *MaterialJSON `json:"material,omitempty"`
	NoShadow  bool          `json:"no_shadow,omitempty"`
}

// ShadowSettings configures the shadow pipeline.
type ShadowSettings struct {
	LightKind  string     `json:"light_kind"` // "point" (default when empty) or "spot"
	LightIndex int        `json:"light_index"`
	MapSize    int        `json:"map_size"`
	Slope      float32    `json:"slope"`
	Constant   float32    `json:"constant"`
	ShaderBias float32    `json:"shader_bias"`
	Anchor     [3]float32 `json:"anchor"`
	Orbit      OrbitJSON  `json:"orbit"`

	PCF            bool `json:"pcf,omitempty"`
	FrustumCulling bool `json:"frustum_culling,omitempty"`
}

type OrbitJSON struct {
	Enabled      bool       `json:"enabled"`
	Radius       float32    `json:"radius"`
	Height       float32    `json:"height"`
	Center       [3]float32 `json:"center"`
	StepsPerTurn int        `json:"steps_per_turn"`
}

// DefaultSceneConfig returns the built-in scene: a sand ground, a tiger and
// a panda lit by one orbiting point light.
func DefaultSceneConfig() *SceneConfig {
	white := [4]float32{1, 1, 1, 1}
	// fixed-function defaults with a white diffuse reflection
	material := func() *MaterialJSON {
		return &MaterialJSON{Ambient: [4]float32{0.2, 0.2, 0.2, 1}, Diffuse: white}
	}
	return &SceneConfig{
		Name:          "shadow mapping",
		Width:         1920,
		Height:        1080,
		ClearColor:    [4]float32{0.1, 0.1, 0.1, 1},
		GlobalAmbient: [4]float32{0.2, 0.2, 0.2, 1},
		Camera: CameraJSON{
			Eye:        [3]float32{256, 300, 1000},
			Target:     [3]float32{256, 0, 256},
			Up:         [3]float32{0, 1, 0},
			Projection: "perspective",
			FOV:        60,
			Near:       1,
			Far:        5000,
		},
		LightCamera: CameraJSON{
			Up:         [3]float32{0, 1, 0},
			Projection: "perspective",
			FOV:        60,
			Near:       100,
			Far:        3000,
		},
		Lights: []LightJSON{{
			Position:      [4]float32{256, 500, 512, 1},
			Ambient:       white,
			Diffuse:       [4]float32{0.7, 0.7, 0.7, 1},
			Specular:      [4]float32{0.9, 0.9, 0.9, 1},
			SpotDirection: [3]float32{0, 0, -1},
			SpotCutoff:    NoSpotCutoff,
			Attenuation:   [3]float32{1, 0, 0},
		}},
		Objects: []ObjectJSON{
			{
				Name:      "ground",
				Primitive: "ground",
				Size:      512,
				Texture:   "samples/sand.jpg",
				Scale:     [3]float32{1, 1, 1},
				Material:  material(),
			},
			{
				Name:     "tiger",
				Mesh:     "samples/tiger/tiger.txt",
				Texture:  "samples/tiger/tiger.jpg",
				Position: [3]float32{250, 0, 330},
				Rotation: [3]float32{-90, 180, 0},
				Scale:    [3]float32{0.3, 0.3, 0.3},
				Material: material(),
			},
			{
				Name:     "panda",
				Mesh:     "samples/panda/panda.obj",
				Texture:  "samples/panda/panda.png",
				Position: [3]float32{250, -5, 180},
				Scale:    [3]float32{20, 20, 20},
				Material: material(),
			},
		},
		Shadow: ShadowSettings{
			LightKind:  "point",
			MapSize:    2048,
			Slope:      2,
			Constant:   4,
			ShaderBias: 0.002,
			Anchor:     [3]float32{256, 0, 10},
			Orbit: OrbitJSON{
				Enabled:      true,
				Radius:       1024,
				Height:       200,
				Center:       [3]float32{256, 0, 256},
				StepsPerTurn: 628,
			},
			FrustumCulling: true,
		},
	}
}

// LoadSceneConfig reads a JSON scene file. Missing fields keep the values
// of DefaultSceneConfig, except Lights and Objects which replace the
// defaults when present.
func LoadSceneConfig(path string) (*SceneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %q: %w", path, err)
	}
	cfg := DefaultSceneConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse scene %q: %w", path, err)
	}
	cfg.baseDir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scene %q: %w", path, err)
	}
	return cfg, nil
}

// SaveSceneConfig writes cfg as indented JSON.
func SaveSceneConfig(path string, cfg *SceneConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write scene %q: %w", path, err)
	}
	return nil
}

// Validate checks the settings that would otherwise fail deep inside setup.
func (c *SceneConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Width, c.Height)
	}
	if c.Shadow.MapSize <= 0 {
		return fmt.Errorf("shadow map size %d must be positive", c.Shadow.MapSize)
	}
	switch strings.ToLower(c.Shadow.LightKind) {
	case "", "point", "spot":
	default:
		return fmt.Errorf("unknown light kind %q", c.Shadow.LightKind)
	}
	if c.Shadow.LightIndex < 0 || c.Shadow.LightIndex >= len(c.Lights) {
		return fmt.Errorf("shadow light index %d with %d lights", c.Shadow.LightIndex, len(c.Lights))
	}
	if c.Shadow.Orbit.Enabled && c.Shadow.Orbit.StepsPerTurn <= 0 {
		return fmt.Errorf("orbit steps per turn %d must be positive", c.Shadow.Orbit.StepsPerTurn)
	}
	for i, o := range c.Objects {
		if (o.Mesh == "") == (o.Primitive == "") {
			return fmt.Errorf("object %d (%q): set exactly one of mesh or primitive", i, o.Name)
		}
	}
	return nil
}

// SetBaseDir sets the directory relative asset paths resolve against.
func (c *SceneConfig) SetBaseDir(dir string) { c.baseDir = dir }

func (c *SceneConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// CameraConfig converts a camera entry for a width×height viewport.
func (cj CameraJSON) CameraConfig(width, height int) CameraConfig {
	proj := ProjectionPerspective
	if strings.EqualFold(cj.Projection, "orthographic") {
		proj = ProjectionOrthographic
	}
	return CameraConfig{
		Eye:         vec3(cj.Eye),
		Target:      vec3(cj.Target),
		Up:          vec3(cj.Up),
		Projection:  proj,
		FOV:         cj.FOV,
		OrthoExtent: cj.OrthoExtent,
		Near:        cj.Near,
		Far:         cj.Far,
		Width:       width,
		Height:      height,
	}
}

func (lj LightJSON) Params() LightParams {
	return LightParams{
		Position:      math.NewVec4(lj.Position[0], lj.Position[1], lj.Position[2], lj.Position[3]),
		Ambient:       core.ColorFromArray(lj.Ambient),
		Diffuse:       core.ColorFromArray(lj.Diffuse),
		Specular:      core.ColorFromArray(lj.Specular),
		SpotDirection: vec3(lj.SpotDirection),
		SpotExponent:  lj.SpotExponent,
		SpotCutoff:    lj.SpotCutoff,
		Attenuation:   vec3(lj.Attenuation),
	}
}

// BuildLights fills a registry from the config.
func (c *SceneConfig) BuildLights() *LightRegistry {
	reg := NewLightRegistry()
	reg.SetGlobalAmbient(core.ColorFromArray(c.GlobalAmbient))
	for _, lj := range c.Lights {
		i := reg.AddLight(lj.Params())
		if lj.Inactive {
			reg.Deactivate(i)
		}
	}
	return reg
}

// BuildObjects loads every object. Objects whose mesh cannot be loaded are
// logged and left out; a missing texture only drops the texture.
func (c *SceneConfig) BuildObjects() []*Object {
	var objects []*Object
	for _, oj := range c.Objects {
		obj, err := c.buildObject(oj)
		if err != nil {
			core.Logger().Warn("object skipped", "name", oj.Name, "err", err)
			continue
		}
		objects = append(objects, obj)
	}
	return objects
}

func (c *SceneConfig) buildObject(oj ObjectJSON) (*Object, error) {
	obj := NewObject(oj.Name)
	tex := c.resolve(oj.Texture)
	size := oj.Size
	if size == 0 {
		size = 1
	}

	var err error
	switch oj.Primitive {
	case "":
		err = obj.SetGeometryFromFile(DrawTriangles, c.resolve(oj.Mesh), tex)
	case "ground":
		err = obj.setMesh(DrawTriangles, GroundPlane(size), tex)
	case "box":
		h := size / 2
		err = obj.setMesh(DrawTriangles, Box(math.NewVec3(-h, -h, -h), math.NewVec3(h, h, h)), tex)
	case "sphere":
		err = obj.setMesh(DrawTriangles, Sphere(size, 32, 16), tex)
	default:
		err = fmt.Errorf("unknown primitive %q", oj.Primitive)
	}
	if err != nil {
		return nil, err
	}

	scale := vec3(oj.Scale)
	if scale == math.Vec3Zero {
		scale = math.Vec3One
	}
	obj.Model = core.Transform{
		Position: vec3(oj.Position),
		Rotation: math.NewVec3(
			math.DegToRad(oj.Rotation[0]),
			math.DegToRad(oj.Rotation[1]),
			math.DegToRad(oj.Rotation[2]),
		),
		Scale: scale,
	}.GetMatrix()
	obj.CastsShadow = !oj.NoShadow
	if m := oj.Material; m != nil {
		obj.Material = &Material{
			Name:      oj.Name,
			Emission:  core.ColorFromArray(m.Emission),
			Ambient:   core.ColorFromArray(m.Ambient),
			Diffuse:   core.ColorFromArray(m.Diffuse),
			Specular:  core.ColorFromArray(m.Specular),
			Shininess: m.Shininess,
		}
	}
	return obj, nil
}

func vec3(a [3]float32) math.Vec3 {
	return math.NewVec3(a[0], a[1], a[2])
}
