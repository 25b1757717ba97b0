package scene

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"shadow-engine/math"
)

func TestParseOBJTriangle(t *testing.T) {
	src := `# one triangle
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`
	mesh, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	want := &MeshData{
		Positions: []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
		Normals:   []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}},
		UVs:       []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
	}
	if !reflect.DeepEqual(mesh, want) {
		t.Errorf("expected %+v, got %+v", want, mesh)
	}

	g, err := mesh.Geometry(DrawTriangles)
	if err != nil {
		t.Fatal(err)
	}
	if g.Layout != LayoutPNT || len(g.Data) != 24 {
		t.Errorf("expected PNT with 24 floats, got %v with %d", g.Layout, len(g.Data))
	}
}

func TestParseOBJQuadAndNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf -4 -3 -2 -1\n"
	mesh, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if mesh.VertexCount() != 6 {
		t.Fatalf("quad should expand to 6 vertices, got %d", mesh.VertexCount())
	}
	if mesh.Normals != nil || mesh.UVs != nil {
		t.Error("positions-only faces should produce no normals or uvs")
	}
	if mesh.Positions[5] != math.NewVec3(0, 1, 0) {
		t.Errorf("fan triangulation: last vertex %v", mesh.Positions[5])
	}
}

func TestParseOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		is   error
	}{
		{"index past end", "v 0 0 0\nv 1 0 0\nf 1 2 3\n", ErrFaceIndex},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrFaceIndex},
		{"missing normal", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2//1 3//1\n", ErrFaceIndex},
		{"bad float", "v 0 x 0\n", nil},
		{"two corners", "v 0 0 0\nf 1 1\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestParseTiger(t *testing.T) {
	src := `2
3
0 0 0  0 1 0  0 0
1 0 0  0 1 0  1 0
0 0 1  0 1 0  0 1
3
1 0 0  0 1 0  1 0
1 0 1  0 1 0  1 1
0 0 1  0 1 0  0 1
`
	mesh, err := ParseTiger(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseTiger: %v", err)
	}
	if mesh.VertexCount() != 6 || len(mesh.Normals) != 6 || len(mesh.UVs) != 6 {
		t.Fatalf("expected 6 full vertices, got %d/%d/%d", mesh.VertexCount(), len(mesh.Normals), len(mesh.UVs))
	}
	if mesh.Positions[4] != math.NewVec3(1, 0, 1) || mesh.UVs[4] != math.NewVec2(1, 1) {
		t.Errorf("vertex 4: %v %v", mesh.Positions[4], mesh.UVs[4])
	}
	if mesh.Normals[0] != math.Vec3Up {
		t.Errorf("normal 0: %v", mesh.Normals[0])
	}
}

func TestParseTigerErrors(t *testing.T) {
	_, err := ParseTiger(strings.NewReader("1\n4\n"))
	if !errors.Is(err, ErrCornerCount) {
		t.Errorf("quad: expected ErrCornerCount, got %v", err)
	}
	_, err = ParseTiger(strings.NewReader("1\n3\n0 0 0 0 1 0"))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("short file: expected io.ErrUnexpectedEOF, got %v", err)
	}
	// a corrupt count must fail on the missing data, not on allocation
	_, err = ParseTiger(strings.NewReader("4000000000000000000\n3\n"))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("huge count: expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestLoadGLTFRejectsBadIndices(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		is   error
	}{
		{
			"position accessor out of range",
			`{"asset":{"version":"2.0"},"scene":0,"scenes":[{"nodes":[0]}],"nodes":[{"mesh":0}],
			"meshes":[{"primitives":[{"attributes":{"POSITION":7}}]}]}`,
			ErrFaceIndex,
		},
		{
			"index accessor out of range",
			`{"asset":{"version":"2.0"},"scene":0,"scenes":[{"nodes":[0]}],"nodes":[{"mesh":0}],
			"meshes":[{"primitives":[{"attributes":{"POSITION":0},"indices":3}]}],
			"accessors":[{"componentType":5126,"count":0,"type":"VEC3"}]}`,
			ErrFaceIndex,
		},
		{
			"child out of range",
			`{"asset":{"version":"2.0"},"scene":0,"scenes":[{"nodes":[0]}],"nodes":[{"children":[5]}]}`,
			ErrFaceIndex,
		},
		{
			"node cycle",
			`{"asset":{"version":"2.0"},"scene":0,"scenes":[{"nodes":[0]}],"nodes":[{"children":[1]},{"children":[0]}]}`,
			ErrNodeCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.gltf")
			if err := os.WriteFile(path, []byte(tt.doc), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, err := LoadGLTF(path)
			if !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
		})
	}

	// the object is left untouched when its asset fails to load
	path := filepath.Join(t.TempDir(), "cycle.gltf")
	if err := os.WriteFile(path, []byte(tests[3].doc), 0o644); err != nil {
		t.Fatal(err)
	}
	obj := NewObject("broken")
	if err := obj.SetGeometryFromFile(DrawTriangles, path, ""); err == nil {
		t.Error("expected SetGeometryFromFile to report the cycle")
	}
	if obj.Geometry != nil {
		t.Error("geometry must stay unset after a failed load")
	}
}

func writePNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoadTextureAndSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")
	writePNG(t, path, 4, 2, color.NRGBA{G: 255, A: 255})

	tex, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if tex.Width != 4 || tex.Height != 2 || len(tex.Pixels) != 4*2*4 {
		t.Fatalf("unexpected texture %dx%d (%d bytes)", tex.Width, tex.Height, len(tex.Pixels))
	}
	if c := tex.Sample(0.1, 0.1); c.R != 1 || c.G != 0 {
		t.Errorf("top-left texel: %v", c)
	}
	if c := tex.Sample(0.6, 0.9); c.G != 1 || c.R != 0 {
		t.Errorf("interior texel: %v", c)
	}
	// repeat wrapping
	if c := tex.Sample(1.1, 1.1); c.R != 1 {
		t.Errorf("wrapped texel: %v", c)
	}

	if _, err := LoadTexture(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadGLTFAppliesNodeTransform(t *testing.T) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{"POSITION": pos},
		}},
	}}
	node := &gltf.Node{Mesh: gltf.Index(0)}
	node.Translation[0] = 10
	node.Rotation[3] = 1
	node.Scale[0], node.Scale[1], node.Scale[2] = 1, 1, 1
	doc.Nodes = []*gltf.Node{node}
	doc.Scenes[0].Nodes = []int{0}

	path := filepath.Join(t.TempDir(), "tri.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}

	mesh, tex, err := LoadGLTF(path)
	if err != nil {
		t.Fatalf("LoadGLTF: %v", err)
	}
	if tex != nil {
		t.Error("no material, so no texture expected")
	}
	if mesh.VertexCount() != 3 {
		t.Fatalf("expected 3 vertices, got %d", mesh.VertexCount())
	}
	if !mesh.Positions[1].ApproxEqual(math.NewVec3(11, 0, 0), 1e-6) {
		t.Errorf("translated vertex: %v", mesh.Positions[1])
	}
	// flat normal of a CCW triangle in the XY plane
	if !mesh.Normals[0].ApproxEqual(math.NewVec3(0, 0, 1), 1e-6) {
		t.Errorf("flat normal: %v", mesh.Normals[0])
	}
	if mesh.UVs != nil {
		t.Error("uvs should be dropped when no primitive has them")
	}
}

func TestObjectSetGeometryFromFile(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "tri.obj")
	if err := os.WriteFile(objPath, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	obj := NewObject("tri")
	// missing texture is tolerated
	if err := obj.SetGeometryFromFile(DrawTriangles, objPath, filepath.Join(dir, "nope.png")); err != nil {
		t.Fatalf("SetGeometryFromFile: %v", err)
	}
	if obj.Geometry == nil || obj.Geometry.VertexCount != 3 || obj.Geometry.Layout != LayoutP {
		t.Fatalf("unexpected geometry %+v", obj.Geometry)
	}
	if len(obj.Textures) != 0 {
		t.Error("failed texture must not be attached")
	}

	if err := obj.SetGeometryFromFile(DrawTriangles, filepath.Join(dir, "missing.txt"), ""); err == nil {
		t.Error("expected an error for a missing tiger file")
	}
}

type recordingTarget struct {
	material *Material
	units    []int
}

func (r *recordingTarget) SetMaterial(m *Material)            { r.material = m }
func (r *recordingTarget) BindTexture(unit int, tex *Texture) { r.units = append(r.units, unit) }

func TestTransferMaterialSkipsShadowUnit(t *testing.T) {
	obj := NewObject("textured")
	obj.Textures = []*Texture{NewSolidTexture("a", 1, 2, 3, 4), NewSolidTexture("b", 1, 2, 3, 4)}

	var rt recordingTarget
	obj.TransferMaterialAndTextures(&rt)
	if rt.material != obj.Material {
		t.Error("material not transferred")
	}
	if !reflect.DeepEqual(rt.units, []int{DiffuseTextureUnit, 2}) {
		t.Errorf("expected units [0 2], got %v", rt.units)
	}
}

type countingHandle struct{ releases int }

func (h *countingHandle) Release() { h.releases++ }

func TestObjectReleaseOnce(t *testing.T) {
	obj := NewObject("owned")
	if err := obj.SetGeometry(DrawTriangles, []math.Vec3{{}, {X: 1}, {Y: 1}}, nil, nil, ""); err != nil {
		t.Fatal(err)
	}
	tex := NewSolidTexture("t", 1, 2, 3, 4)
	obj.Textures = []*Texture{tex}

	buffers, texHandle := &countingHandle{}, &countingHandle{}
	obj.GPUData = buffers
	tex.GPUData = texHandle

	obj.Release()
	obj.Release()
	if buffers.releases != 1 || texHandle.releases != 1 {
		t.Errorf("expected one release each, got buffers %d texture %d", buffers.releases, texHandle.releases)
	}
	if obj.GPUData != nil || tex.GPUData != nil {
		t.Error("handles should be cleared after release")
	}
	if len(tex.Pixels) == 0 {
		t.Error("CPU pixels must survive a GPU release")
	}

	// replacing the geometry frees the previous upload
	replaced := &countingHandle{}
	obj.GPUData = replaced
	if err := obj.SetGeometry(DrawTriangles, []math.Vec3{{}, {X: 2}, {Y: 2}}, nil, nil, ""); err != nil {
		t.Fatal(err)
	}
	if replaced.releases != 1 || obj.GPUData != nil {
		t.Errorf("old upload: expected 1 release, got %d", replaced.releases)
	}
}
