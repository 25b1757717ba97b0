package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"shadow-engine/core"
	"shadow-engine/math"
)

// Object is a renderable mesh with its transform, material and textures.
// The object owns its textures and GPU buffers; Release frees them once.
type Object struct {
	Name        string
	Geometry    *Geometry
	Material    *Material
	Textures    []*Texture
	Model       math.Mat4
	CastsShadow bool
	Visible     bool

	// GPUData is set by a rendering backend when the geometry is uploaded.
	GPUData Releaser
}

func NewObject(name string) *Object {
	return &Object{
		Name:        name,
		Material:    DefaultMaterial(),
		Model:       math.Mat4Identity(),
		CastsShadow: true,
		Visible:     true,
	}
}

// SetGeometry packs positions, then normals and uvs when given, into one
// interleaved buffer. texturePath may be empty; a texture that fails to
// load is logged and skipped. Any previously uploaded buffer is released
// so the backend re-uploads on the next draw.
func (o *Object) SetGeometry(mode DrawMode, positions []math.Vec3, normals []math.Vec3, uvs []math.Vec2, texturePath string) error {
	g, err := NewGeometry(mode, positions, normals, uvs)
	if err != nil {
		return fmt.Errorf("object %q: %w", o.Name, err)
	}
	o.setGeometry(g, texturePath)
	return nil
}

// SetGeometryFromFile loads a mesh file and expands it into a flat buffer.
// The format follows the extension: .obj, .gltf/.glb, anything else is
// read as a tiger mesh.
func (o *Object) SetGeometryFromFile(mode DrawMode, meshPath, texturePath string) error {
	switch strings.ToLower(filepath.Ext(meshPath)) {
	case ".obj":
		mesh, err := LoadOBJ(meshPath)
		if err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
		return o.setMesh(mode, mesh, texturePath)
	case ".gltf", ".glb":
		return o.SetGeometryFromGLTF(mode, meshPath, texturePath)
	default:
		return o.SetGeometryFromTiger(mode, meshPath, texturePath)
	}
}

// SetGeometryFromTiger loads a tiger mesh file.
func (o *Object) SetGeometryFromTiger(mode DrawMode, meshPath, texturePath string) error {
	mesh, err := LoadTiger(meshPath)
	if err != nil {
		return fmt.Errorf("object %q: %w", o.Name, err)
	}
	return o.setMesh(mode, mesh, texturePath)
}

// SetGeometryFromGLTF loads a glTF scene flattened to one mesh. When
// texturePath is empty the file's own base color texture is used.
func (o *Object) SetGeometryFromGLTF(mode DrawMode, meshPath, texturePath string) error {
	mesh, tex, err := LoadGLTF(meshPath)
	if err != nil {
		return fmt.Errorf("object %q: %w", o.Name, err)
	}
	if err := o.setMesh(mode, mesh, texturePath); err != nil {
		return err
	}
	if texturePath == "" && tex != nil {
		o.Textures = append(o.Textures, tex)
	}
	return nil
}

func (o *Object) setMesh(mode DrawMode, mesh *MeshData, texturePath string) error {
	g, err := mesh.Geometry(mode)
	if err != nil {
		return fmt.Errorf("object %q: %w", o.Name, err)
	}
	o.setGeometry(g, texturePath)
	return nil
}

func (o *Object) setGeometry(g *Geometry, texturePath string) {
	o.releaseBuffers()
	o.Geometry = g
	if texturePath != "" {
		_ = o.AddTexture(texturePath)
	}
	core.Logger().Debug("geometry set", "object", o.Name, "layout", g.Layout, "vertices", g.VertexCount)
}

// AddTexture loads an image and appends it to the object's textures. A
// failure is logged and returned; the object is left unchanged.
func (o *Object) AddTexture(path string) error {
	tex, err := LoadTexture(path)
	if err != nil {
		core.Logger().Warn("texture skipped", "object", o.Name, "err", err)
		return err
	}
	o.Textures = append(o.Textures, tex)
	return nil
}

// TransferMaterialAndTextures pushes the material and binds every texture
// to its unit on target.
func (o *Object) TransferMaterialAndTextures(target MaterialTarget) {
	mat := o.Material
	if mat == nil {
		mat = DefaultMaterial()
	}
	target.SetMaterial(mat)
	for i, tex := range o.Textures {
		target.BindTexture(TextureUnit(i), tex)
	}
}

// DiffuseTexture returns the texture bound to the diffuse unit, or nil.
func (o *Object) DiffuseTexture() *Texture {
	if len(o.Textures) == 0 {
		return nil
	}
	return o.Textures[0]
}

func (o *Object) releaseBuffers() {
	if o.GPUData != nil {
		o.GPUData.Release()
		o.GPUData = nil
	}
}

// Release frees GPU buffers and textures. Calling it again is a no-op.
func (o *Object) Release() {
	o.releaseBuffers()
	for _, tex := range o.Textures {
		tex.Release()
	}
}
