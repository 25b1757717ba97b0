package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"

	"shadow-engine/scene"
)

const floatSize = 4

// gpuMesh holds the buffers of one uploaded Geometry. It is stored in
// Object.GPUData and freed by Object.Release.
type gpuMesh struct {
	vao, vbo  uint32
	count     int32
	primitive uint32
	layout    scene.Layout
	geometry  *scene.Geometry
}

func (m *gpuMesh) Release() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
		m.vbo = 0
	}
}

func primitiveFor(mode scene.DrawMode) uint32 {
	switch mode {
	case scene.DrawTriangleStrip:
		return gl.TRIANGLE_STRIP
	case scene.DrawTriangleFan:
		return gl.TRIANGLE_FAN
	case scene.DrawLines:
		return gl.LINES
	case scene.DrawPoints:
		return gl.POINTS
	}
	return gl.TRIANGLES
}

// ensureUploaded returns obj's GPU mesh, uploading the geometry on first
// use or after SetGeometry replaced it.
func ensureUploaded(obj *scene.Object) *gpuMesh {
	g := obj.Geometry
	if g == nil || g.VertexCount == 0 {
		return nil
	}
	if m, ok := obj.GPUData.(*gpuMesh); ok && m.geometry == g && m.vao != 0 {
		return m
	}
	if obj.GPUData != nil {
		obj.GPUData.Release()
	}

	m := &gpuMesh{
		count:     int32(g.VertexCount),
		primitive: primitiveFor(g.Mode),
		layout:    g.Layout,
		geometry:  g,
	}
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.BindVertexArray(m.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(g.Data)*floatSize, gl.Ptr(g.Data), gl.STATIC_DRAW)

	stride := int32(g.Layout.Stride() * floatSize)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))

	if off := g.Layout.NormalOffset(); off >= 0 {
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(off*floatSize))
	} else {
		gl.DisableVertexAttribArray(1)
	}
	if off := g.Layout.UVOffset(); off >= 0 {
		gl.EnableVertexAttribArray(2)
		gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(off*floatSize))
	} else {
		gl.DisableVertexAttribArray(2)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	obj.GPUData = m
	return m
}

func (m *gpuMesh) isTriangles() bool {
	return m.primitive == gl.TRIANGLES || m.primitive == gl.TRIANGLE_STRIP || m.primitive == gl.TRIANGLE_FAN
}

func (m *gpuMesh) draw() {
	gl.BindVertexArray(m.vao)
	gl.DrawArrays(m.primitive, 0, m.count)
	gl.BindVertexArray(0)
}
