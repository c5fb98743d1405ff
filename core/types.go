package core

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorRed   = Color{1, 0, 0, 1}
	ColorGreen = Color{0, 1, 0, 1}
	ColorBlue  = Color{0, 0, 1, 1}
)

func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// Vertex is the layout both backends feed to their vertex stage: two
// four-component float attributes at location 0 and 1 of binding 0.
type Vertex struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

const (
	VertexStride         = uint32(unsafe.Sizeof(Vertex{}))
	VertexPositionOffset = uint32(unsafe.Offsetof(Vertex{}.Position))
	VertexColorOffset    = uint32(unsafe.Offsetof(Vertex{}.Color))
)

// TriangleVertices is the single mesh the engine draws. Listed clockwise in
// framebuffer space (y down), which is the front face.
var TriangleVertices = []Vertex{
	{Position: mgl32.Vec4{0.0, -0.5, 0.0, 1.0}, Color: ColorRed.Vec4()},
	{Position: mgl32.Vec4{0.5, 0.5, 0.0, 1.0}, Color: ColorGreen.Vec4()},
	{Position: mgl32.Vec4{-0.5, 0.5, 0.0, 1.0}, Color: ColorBlue.Vec4()},
}

// VertexBytes returns the raw bytes of vertices for upload.
func VertexBytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	size := len(vertices) * int(VertexStride)
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size)
}
