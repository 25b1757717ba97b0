package scene

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"shadow-engine/math"
)

// ErrFaceIndex is returned when a face references a missing vertex,
// normal or texture coordinate.
var ErrFaceIndex = errors.New("face index out of range")

// MeshData is a flat, non-indexed triangle list: entry i of each non-nil
// slice belongs to vertex i.
type MeshData struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	UVs       []math.Vec2
}

func (m *MeshData) VertexCount() int { return len(m.Positions) }

// Geometry packs the mesh for the given draw mode.
func (m *MeshData) Geometry(mode DrawMode) (*Geometry, error) {
	return NewGeometry(mode, m.Positions, m.Normals, m.UVs)
}

// objRef is one corner of a face: 0-based indices, -1 when absent.
type objRef struct {
	v, vt, vn int
}

// LoadOBJ parses a Wavefront OBJ file. See ParseOBJ.
func LoadOBJ(path string) (*MeshData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	mesh, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("parse obj %q: %w", path, err)
	}
	return mesh, nil
}

// ParseOBJ reads v, vt, vn and f records and expands every face into its
// own vertices; nothing is shared between triangles. Faces with more than
// three corners are fan-triangulated. Other tags are skipped. Each
// attribute must be referenced by all faces or by none.
func ParseOBJ(r io.Reader) (*MeshData, error) {
	var (
		positions []math.Vec3
		normals   []math.Vec3
		uvs       []math.Vec2
		faces     [][3]objRef
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: v: %w", lineNo, err)
			}
			positions = append(positions, math.NewVec3(v[0], v[1], v[2]))

		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: vn: %w", lineNo, err)
			}
			normals = append(normals, math.NewVec3(v[0], v[1], v[2]))

		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: vt: %w", lineNo, err)
			}
			uvs = append(uvs, math.NewVec2(v[0], v[1]))

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs 3 corners, got %d", lineNo, len(fields)-1)
			}
			refs := make([]objRef, len(fields)-1)
			for i, tok := range fields[1:] {
				ref, err := parseObjRef(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				refs[i] = ref
			}
			for i := 1; i+1 < len(refs); i++ {
				faces = append(faces, [3]objRef{refs[0], refs[i], refs[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if len(faces) == 0 {
		return &MeshData{}, nil
	}

	hasUV := faces[0][0].vt >= 0
	hasNormal := faces[0][0].vn >= 0
	mesh := &MeshData{Positions: make([]math.Vec3, 0, len(faces)*3)}
	if hasUV {
		mesh.UVs = make([]math.Vec2, 0, len(faces)*3)
	}
	if hasNormal {
		mesh.Normals = make([]math.Vec3, 0, len(faces)*3)
	}
	for fi, face := range faces {
		for _, ref := range face {
			if (ref.vt >= 0) != hasUV || (ref.vn >= 0) != hasNormal {
				return nil, fmt.Errorf("face %d: mixed vertex formats", fi+1)
			}
			mesh.Positions = append(mesh.Positions, positions[ref.v])
			if hasUV {
				mesh.UVs = append(mesh.UVs, uvs[ref.vt])
			}
			if hasNormal {
				mesh.Normals = append(mesh.Normals, normals[ref.vn])
			}
		}
	}
	return mesh, nil
}

// parseObjRef parses "v", "v/t", "v//n" or "v/t/n". Indices are 1-based;
// negative values count back from the most recent element.
func parseObjRef(tok string, nv, nt, nn int) (objRef, error) {
	ref := objRef{v: -1, vt: -1, vn: -1}
	parts := strings.Split(tok, "/")
	if len(parts) > 3 {
		return ref, fmt.Errorf("bad vertex record %q", tok)
	}
	var err error
	if ref.v, err = resolveObjIndex(parts[0], nv, "vertex"); err != nil {
		return ref, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if ref.vt, err = resolveObjIndex(parts[1], nt, "texcoord"); err != nil {
			return ref, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if ref.vn, err = resolveObjIndex(parts[2], nn, "normal"); err != nil {
			return ref, err
		}
	}
	return ref, nil
}

func resolveObjIndex(s string, count int, what string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return -1, fmt.Errorf("%s index %q: %w", what, s, err)
	}
	idx := i - 1
	if i < 0 {
		idx = count + i
	}
	if i == 0 || idx < 0 || idx >= count {
		return -1, fmt.Errorf("%s index %d with %d defined: %w", what, i, count, ErrFaceIndex)
	}
	return idx, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("need %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}
