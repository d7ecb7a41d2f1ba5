// Package render provides GPU buffer management for frame outputs
package render

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"planetmesh/internal/core/frame"
)

// PlanetMesh owns the GL buffers for the current frame's terrain and
// implements the renderer submit contract. Buffers are reused across
// frames and re-uploaded on submit.
type PlanetMesh struct {
	vao uint32
	vbo uint32
	ebo uint32

	vboSize int
	eboSize int

	draws []frame.Draw
}

// NewPlanetMesh allocates the GL objects and fixes the vertex layout
func NewPlanetMesh() *PlanetMesh {
	m := &PlanetMesh{}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)

	stride := int32(frame.PackedVertexSize)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)

	// Normal (location 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)

	// UV (location 2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(2)

	// Face mask (location 3)
	gl.VertexAttribIPointerWithOffset(3, 1, gl.UNSIGNED_BYTE, stride, 8*4)
	gl.EnableVertexAttribArray(3)

	gl.BindVertexArray(0)
	return m
}

// Submit uploads a frame output. Submitting the same output again is
// harmless, which lets the caller re-show the previous frame after an
// aborted one.
func (m *PlanetMesh) Submit(out *frame.Output) error {
	if len(out.Vertices) == 0 || len(out.Indices) == 0 {
		m.draws = nil
		return nil
	}

	gl.BindVertexArray(m.vao)

	vbytes := len(out.Vertices) * frame.PackedVertexSize
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	if vbytes > m.vboSize {
		gl.BufferData(gl.ARRAY_BUFFER, vbytes, unsafe.Pointer(&out.Vertices[0]), gl.DYNAMIC_DRAW)
		m.vboSize = vbytes
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, vbytes, unsafe.Pointer(&out.Vertices[0]))
	}

	ibytes := len(out.Indices) * 4
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	if ibytes > m.eboSize {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, ibytes, gl.Ptr(out.Indices), gl.DYNAMIC_DRAW)
		m.eboSize = ibytes
	} else {
		gl.BufferSubData(gl.ELEMENT_ARRAY_BUFFER, 0, ibytes, gl.Ptr(out.Indices))
	}

	gl.BindVertexArray(0)

	m.draws = append(m.draws[:0], out.Draws...)
	return nil
}

// Draw issues the draw list uploaded by the last Submit
func (m *PlanetMesh) Draw(shader *Shader, viewProj mgl32.Mat4, sunDir, camPos mgl32.Vec3, radius, heightScale float32) {
	if len(m.draws) == 0 {
		return
	}

	shader.Use()
	shader.SetMat4("uViewProj", viewProj)
	shader.SetVec3("uSunDirection", sunDir)
	shader.SetVec3("uCameraPos", camPos)
	shader.SetFloat("uRadius", radius)
	shader.SetFloat("uHeightScale", heightScale)
	shader.SetInt("uPalette", 0)

	gl.BindVertexArray(m.vao)
	for _, d := range m.draws {
		gl.DrawElementsWithOffset(gl.TRIANGLES, int32(d.IndexCount), gl.UNSIGNED_INT,
			uintptr(d.FirstIndex)*4)
	}
	gl.BindVertexArray(0)
}

// Delete releases the GL objects
func (m *PlanetMesh) Delete() {
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
	gl.DeleteVertexArrays(1, &m.vao)
}
