// Package opengl is the OpenGL 4.1 core backend. It draws the same
// triangle as the Vulkan backend and is selected with the opengl build tag.
package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"tri-engine/core"
	"tri-engine/logger"
)

// Window is what the renderer needs from the windowing layer. The GL
// context must already be current.
type Window interface {
	SwapBuffers()
	FramebufferSize() (int, int)
}

type Config struct {
	VertexShaderPath   string
	FragmentShaderPath string
	ClearColor         [4]float32
	Vertices           []core.Vertex
}

func DefaultConfig() Config {
	return Config{
		VertexShaderPath:   "shaders/triangle.vert.glsl",
		FragmentShaderPath: "shaders/triangle.frag.glsl",
		ClearColor:         [4]float32{0, 0, 0, 1},
		Vertices:           core.TriangleVertices,
	}
}

// Renderer is the OpenGL rendering backend.
type Renderer struct {
	window      Window
	program     uint32
	vao         uint32
	vbo         uint32
	vertexCount int32
	clear       [4]float32
}

// NewRenderer loads GL, compiles the shader pair and uploads the vertices.
func NewRenderer(window Window, config Config, log *logger.Logger) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.Infof("OpenGL version: %s", gl.GoStr(gl.GetString(gl.VERSION)))
	log.Infof("OpenGL renderer: %s", gl.GoStr(gl.GetString(gl.RENDERER)))

	vertSrc, err := core.ReadFile(config.VertexShaderPath)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %w", err)
	}
	fragSrc, err := core.ReadFile(config.FragmentShaderPath)
	if err != nil {
		return nil, fmt.Errorf("fragment shader: %w", err)
	}

	prog, err := newProgram(shaderSource(vertSrc), shaderSource(fragSrc))
	if err != nil {
		return nil, fmt.Errorf("shader compile: %w", err)
	}

	r := &Renderer{
		window:      window,
		program:     prog,
		vertexCount: int32(len(config.Vertices)),
		clear:       config.ClearColor,
	}
	r.upload(config.Vertices)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CW)
	gl.Disable(gl.DEPTH_TEST)

	width, height := window.FramebufferSize()
	r.Resize(width, height)
	return r, nil
}

func (r *Renderer) upload(vertices []core.Vertex) {
	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.BindVertexArray(r.vao)

	if len(vertices) > 0 {
		data := core.VertexBytes(vertices)
		gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, len(data), gl.Ptr(data), gl.STATIC_DRAW)
	}

	stride := int32(core.VertexStride)

	// location 0: Position (vec4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 4, gl.FLOAT, false, stride, gl.PtrOffset(int(core.VertexPositionOffset)))

	// location 1: Color (vec4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, stride, gl.PtrOffset(int(core.VertexColorOffset)))

	gl.BindVertexArray(0)
}

// Resize sets the viewport to the new framebuffer size.
func (r *Renderer) Resize(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// DrawFrame clears, draws the triangle and swaps buffers.
func (r *Renderer) DrawFrame() error {
	gl.ClearColor(r.clear[0], r.clear[1], r.clear[2], r.clear[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)

	if r.vertexCount > 0 {
		gl.UseProgram(r.program)
		gl.BindVertexArray(r.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, r.vertexCount)
		gl.BindVertexArray(0)
	}

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%x", code)
	}
	r.window.SwapBuffers()
	return nil
}

// Destroy releases all GPU resources.
func (r *Renderer) Destroy() {
	gl.DeleteVertexArrays(1, &r.vao)
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteProgram(r.program)
}

// shaderSource turns file contents into the NUL-terminated string GL
// expects.
func shaderSource(code []byte) string {
	src := strings.TrimRight(string(code), "\x00")
	return src + "\x00"
}

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
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
		return 0, fmt.Errorf("link failed: %v", log)
	}
	return prog, nil
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
