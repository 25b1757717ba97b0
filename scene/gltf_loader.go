package scene

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"shadow-engine/core"
	"shadow-engine/math"
)

// ErrNodeCycle is returned when a glTF node is reached twice while walking
// the scene hierarchy.
var ErrNodeCycle = errors.New("node reached twice")

// LoadGLTF flattens every triangle primitive reachable from the default
// scene of a .gltf or .glb file into one non-indexed mesh in world space.
// The base color texture of the first textured material is returned when
// present; tex is nil otherwise.
func LoadGLTF(path string) (mesh *MeshData, tex *Texture, err error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("gltf open %q: %w", path, err)
	}

	mesh = &MeshData{}
	anyUV := false
	seen := make([]bool, len(doc.Nodes))
	var visit func(idx int, parent math.Mat4) error
	visit = func(idx int, parent math.Mat4) error {
		if idx < 0 || idx >= len(doc.Nodes) {
			return fmt.Errorf("node %d: %w", idx, ErrFaceIndex)
		}
		if seen[idx] {
			return fmt.Errorf("node %d: %w", idx, ErrNodeCycle)
		}
		seen[idx] = true
		gn := doc.Nodes[idx]
		world := nodeMatrix(gn).Mul(parent)
		if gn.Mesh != nil && *gn.Mesh >= 0 && *gn.Mesh < len(doc.Meshes) {
			gm := doc.Meshes[*gn.Mesh]
			for pi, prim := range gm.Primitives {
				hasUV, err := appendGLTFPrimitive(doc, prim, world, mesh)
				if err != nil {
					return fmt.Errorf("mesh %q prim %d: %w", gm.Name, pi, err)
				}
				anyUV = anyUV || hasUV
				if tex == nil {
					tex = gltfBaseColor(doc, prim, filepath.Dir(path))
				}
			}
		}
		for _, c := range gn.Children {
			if err := visit(c, world); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range gltfRoots(doc) {
		if err := visit(root, math.Mat4Identity()); err != nil {
			return nil, nil, fmt.Errorf("gltf %q: %w", path, err)
		}
	}
	if !anyUV {
		mesh.UVs = nil
	}
	return mesh, tex, nil
}

func nodeMatrix(gn *gltf.Node) math.Mat4 {
	t := gn.TranslationOrDefault()
	r := gn.RotationOrDefault()
	s := gn.ScaleOrDefault()
	return math.Mat4FromTRS(
		math.NewVec3(float32(t[0]), float32(t[1]), float32(t[2])),
		[4]float32{float32(r[0]), float32(r[1]), float32(r[2]), float32(r[3])},
		math.NewVec3(float32(s[0]), float32(s[1]), float32(s[2])),
	)
}

// gltfRoots returns the default scene's nodes, or every parentless node
// when the file names no scene.
func gltfRoots(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c >= 0 && c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// appendGLTFPrimitive expands one indexed primitive into mesh. Primitives
// that are not triangle lists are skipped.
func appendGLTFPrimitive(doc *gltf.Document, prim *gltf.Primitive, world math.Mat4, mesh *MeshData) (bool, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		core.Logger().Warn("gltf: skipping non-triangle primitive", "mode", prim.Mode)
		return false, nil
	}
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return false, fmt.Errorf("no POSITION attribute")
	}
	acr, err := gltfAccessor(doc, posIdx)
	if err != nil {
		return false, fmt.Errorf("positions: %w", err)
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return false, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if acr, err = gltfAccessor(doc, idx); err == nil {
			normals, err = modeler.ReadNormal(doc, acr, nil)
		}
		if err != nil {
			return false, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if acr, err = gltfAccessor(doc, idx); err == nil {
			uvs, err = modeler.ReadTextureCoord(doc, acr, nil)
		}
		if err != nil {
			return false, fmt.Errorf("texcoords: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if acr, err = gltfAccessor(doc, *prim.Indices); err == nil {
			indices, err = modeler.ReadIndices(doc, acr, nil)
		}
		if err != nil {
			return false, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	for t := 0; t+2 < len(indices); t += 3 {
		var corners [3]math.Vec3
		for c := 0; c < 3; c++ {
			i := int(indices[t+c])
			if i >= len(positions) {
				return false, fmt.Errorf("index %d with %d positions: %w", i, len(positions), ErrFaceIndex)
			}
			p := positions[i]
			corners[c] = world.TransformPoint(math.NewVec3(p[0], p[1], p[2]))
		}
		flat := corners[1].Sub(corners[0]).Cross(corners[2].Sub(corners[0])).Normalize()
		for c := 0; c < 3; c++ {
			i := int(indices[t+c])
			mesh.Positions = append(mesh.Positions, corners[c])
			n := flat
			if i < len(normals) {
				n = world.TransformDirection(math.NewVec3(normals[i][0], normals[i][1], normals[i][2])).Normalize()
			}
			mesh.Normals = append(mesh.Normals, n)
			uv := math.Vec2{}
			if i < len(uvs) {
				uv = math.NewVec2(uvs[i][0], uvs[i][1])
			}
			mesh.UVs = append(mesh.UVs, uv)
		}
	}
	return len(uvs) > 0, nil
}

func gltfAccessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d of %d: %w", idx, len(doc.Accessors), ErrFaceIndex)
	}
	return doc.Accessors[idx], nil
}

// gltfBaseColor loads the base color texture of prim's material, logging
// and returning nil on any failure.
func gltfBaseColor(doc *gltf.Document, prim *gltf.Primitive, dir string) *Texture {
	if prim.Material == nil || *prim.Material < 0 || *prim.Material >= len(doc.Materials) {
		return nil
	}
	pbr := doc.Materials[*prim.Material].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorTexture == nil || pbr.BaseColorTexture.Index < 0 || pbr.BaseColorTexture.Index >= len(doc.Textures) {
		return nil
	}
	gt := doc.Textures[pbr.BaseColorTexture.Index]
	if gt.Source == nil || *gt.Source < 0 || *gt.Source >= len(doc.Images) {
		return nil
	}
	img := doc.Images[*gt.Source]
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", *gt.Source)
	}

	var (
		tex *Texture
		err error
	)
	switch {
	case img.BufferView != nil:
		if *img.BufferView < 0 || *img.BufferView >= len(doc.BufferViews) {
			err = fmt.Errorf("buffer view %d of %d: %w", *img.BufferView, len(doc.BufferViews), ErrFaceIndex)
			break
		}
		var raw []byte
		raw, err = modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err == nil {
			tex, err = decodeImageBytes(name, raw)
		}
	case img.IsEmbeddedResource():
		var raw []byte
		raw, err = img.MarshalData()
		if err == nil {
			tex, err = decodeImageBytes(name, raw)
		}
	case img.URI != "":
		tex, err = LoadTexture(filepath.Join(dir, img.URI))
	}
	if err != nil {
		core.Logger().Warn("gltf: base color texture skipped", "image", name, "err", err)
		return nil
	}
	return tex
}
