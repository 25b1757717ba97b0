package scene

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"shadow-engine/math"
)

// ErrCornerCount is returned for tiger polygons that are not triangles.
var ErrCornerCount = errors.New("polygon is not a triangle")

const maxTigerReserve = 1 << 16

// LoadTiger reads a tiger mesh file. See ParseTiger.
func LoadTiger(path string) (*MeshData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tiger mesh %q: %w", path, err)
	}
	defer f.Close()

	mesh, err := ParseTiger(f)
	if err != nil {
		return nil, fmt.Errorf("parse tiger mesh %q: %w", path, err)
	}
	return mesh, nil
}

// ParseTiger reads the whitespace separated tiger format: a triangle count,
// then for every triangle a corner count (must be 3) followed by eight
// floats per corner: position xyz, normal xyz, uv.
func ParseTiger(r io.Reader) (*MeshData, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	tokens := 0
	next := func(what string) (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("token %d (%s): %w", tokens+1, what, io.ErrUnexpectedEOF)
		}
		tokens++
		return sc.Text(), nil
	}
	nextInt := func(what string) (int, error) {
		s, err := next(what)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("token %d (%s): %w", tokens, what, err)
		}
		return v, nil
	}

	count, err := nextInt("triangle count")
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("negative triangle count %d", count)
	}

	// the count is untrusted; reserve a bounded amount and let append grow
	reserve := min(count, maxTigerReserve) * 3
	mesh := &MeshData{
		Positions: make([]math.Vec3, 0, reserve),
		Normals:   make([]math.Vec3, 0, reserve),
		UVs:       make([]math.Vec2, 0, reserve),
	}
	var corner [8]float32
	for t := 0; t < count; t++ {
		corners, err := nextInt("corner count")
		if err != nil {
			return nil, err
		}
		if corners != 3 {
			return nil, fmt.Errorf("triangle %d has %d corners: %w", t, corners, ErrCornerCount)
		}
		for c := 0; c < 3; c++ {
			for k := range corner {
				s, err := next("corner value")
				if err != nil {
					return nil, err
				}
				f, err := strconv.ParseFloat(s, 32)
				if err != nil {
					return nil, fmt.Errorf("triangle %d corner %d: %w", t, c, err)
				}
				corner[k] = float32(f)
			}
			mesh.Positions = append(mesh.Positions, math.NewVec3(corner[0], corner[1], corner[2]))
			mesh.Normals = append(mesh.Normals, math.NewVec3(corner[3], corner[4], corner[5]))
			mesh.UVs = append(mesh.UVs, math.NewVec2(corner[6], corner[7]))
		}
	}
	return mesh, nil
}
