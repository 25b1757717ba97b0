package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"shadow-engine/math"
)

// program is a linked GLSL program with a uniform location cache.
type program struct {
	id   uint32
	locs map[string]int32
}

func newProgram(name, vertSrc, fragSrc string) (*program, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("%s vertex: %w", name, err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return nil, fmt.Errorf("%s fragment: %w", name, err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return nil, fmt.Errorf("%s: link failed: %v", name, log)
	}
	return &program{id: prog, locs: make(map[string]int32)}, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}

func (p *program) use() { gl.UseProgram(p.id) }

// loc looks up a uniform once. Unknown names resolve to -1, which GL
// silently ignores on upload.
func (p *program) loc(name string) int32 {
	if l, ok := p.locs[name]; ok {
		return l
	}
	l := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locs[name] = l
	return l
}

func (p *program) setInt(name string, v int32)     { gl.Uniform1i(p.loc(name), v) }
func (p *program) setFloat(name string, v float32) { gl.Uniform1f(p.loc(name), v) }

func (p *program) setBool(name string, v bool) {
	var i int32
	if v {
		i = 1
	}
	gl.Uniform1i(p.loc(name), i)
}

func (p *program) setVec3(name string, v math.Vec3) { gl.Uniform3f(p.loc(name), v.X, v.Y, v.Z) }
func (p *program) setVec4(name string, v math.Vec4) { gl.Uniform4f(p.loc(name), v.X, v.Y, v.Z, v.W) }

func (p *program) setColor(name string, c [4]float32) {
	gl.Uniform4f(p.loc(name), c[0], c[1], c[2], c[3])
}

// setMat4 uploads m without transposing: row-vector math stored row-major
// reads as the column-vector matrix GLSL expects.
func (p *program) setMat4(name string, m math.Mat4) {
	gl.UniformMatrix4fv(p.loc(name), 1, false, (*float32)(unsafe.Pointer(&m[0][0])))
}

func (p *program) release() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}
