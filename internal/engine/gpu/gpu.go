// Package gpu defines the graphics device operations used by the draw pipeline.
//
// The interface mirrors the subset of OpenGL that the tour scenes issue, so the
// pipeline can run against a real GL context (package glgpu) or an in-memory
// recorder (package gputest).
package gpu

import "github.com/go-gl/mathgl/mgl32"

// Stage identifies a shader stage.
type Stage int

const (
	StageVertex Stage = iota
	StageFragment
)

// String returns the stage name used in diagnostics.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// Primitive is the topology passed to draw calls.
type Primitive int

const (
	Triangles Primitive = iota
	TriangleStrip
)

// Wrap is a texture coordinate wrapping mode.
type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClampToEdge
)

// Filter is a texture sampling filter.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
	FilterNearestMipmapLinear
	FilterLinearMipmapLinear
)

// DepthFunc is the depth comparison used when depth testing is enabled.
type DepthFunc int

const (
	DepthLess DepthFunc = iota
	DepthLessEqual
)

// TextureParams holds the sampler state of a 2D texture.
type TextureParams struct {
	WrapS     Wrap
	WrapT     Wrap
	MinFilter Filter
	MagFilter Filter
}

// DefaultTextureParams returns the state a freshly created GL texture has.
func DefaultTextureParams() TextureParams {
	return TextureParams{
		WrapS:     WrapRepeat,
		WrapT:     WrapRepeat,
		MinFilter: FilterNearestMipmapLinear,
		MagFilter: FilterLinear,
	}
}

// Color is an RGBA clear color.
type Color struct {
	R, G, B, A float32
}

// Device issues graphics commands against the current context.
// All methods must be called from the thread that owns the context.
type Device interface {
	// CompileShader compiles one stage. ok is false on failure and infoLog
	// carries the driver diagnostic.
	CompileShader(stage Stage, source string) (id uint32, infoLog string, ok bool)
	// LinkProgram links a vertex and fragment shader into a program.
	LinkProgram(vertex, fragment uint32) (id uint32, infoLog string, ok bool)
	DeleteShader(id uint32)
	DeleteProgram(id uint32)
	UseProgram(id uint32)
	// AttribLocation returns -1 when the attribute is not active.
	AttribLocation(program uint32, name string) int32
	// UniformLocation returns -1 when the uniform is not active.
	UniformLocation(program uint32, name string) int32

	NewVertexBuffer(data []float32) uint32
	NewIndexBuffer(data []uint16) uint32
	DeleteBuffer(id uint32)
	// BindAttrib feeds a tightly packed float buffer into an attribute slot.
	BindAttrib(location int32, buffer uint32, components int32)
	BindIndices(buffer uint32)

	NewTexture() uint32
	DeleteTexture(id uint32)
	// UploadTexture replaces level 0 with width*height RGBA8 pixels.
	UploadTexture(id uint32, width, height int, pixels []byte)
	GenerateMipmap(id uint32)
	SetTextureParams(id uint32, params TextureParams)
	BindTexture(unit uint32, id uint32)

	SetUniformMat4(location int32, m mgl32.Mat4)
	SetUniformInt(location int32, v int32)

	Viewport(x, y, width, height int32)
	Clear(color Color, depth float32)
	EnableDepthTest(fn DepthFunc)
	DrawElements(mode Primitive, count int32)
	DrawArrays(mode Primitive, first, count int32)
	// ReadPixels returns the RGBA contents of the default framebuffer,
	// bottom row first.
	ReadPixels(x, y, width, height int32) []byte
}
