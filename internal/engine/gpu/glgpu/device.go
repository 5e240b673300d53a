// Package glgpu implements gpu.Device on top of OpenGL 4.1 core bindings.
package glgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/gltour/internal/engine/gpu"
	"github.com/Faultbox/gltour/internal/logger"
)

// info describes the active GL implementation.
type info struct {
	Version     string
	Renderer    string
	Vendor      string
	GLSLVersion string
	Extensions  []string
}

// Device is a gpu.Device backed by the current GL context.
type Device struct {
	info info
	vao  uint32
	log  *zap.Logger
}

var _ gpu.Device = (*Device)(nil)

// New loads GL function pointers for the current context.
// IMPORTANT: Must be called AFTER the GL context is made current!
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}

	d := &Device{log: logger.Named("gl")}
	d.info = info{
		Version:     gl.GoStr(gl.GetString(gl.VERSION)),
		Renderer:    gl.GoStr(gl.GetString(gl.RENDERER)),
		Vendor:      gl.GoStr(gl.GetString(gl.VENDOR)),
		GLSLVersion: gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
		Extensions:  extensions(),
	}
	d.log.Info("OpenGL initialized",
		zap.String("version", d.info.Version),
		zap.String("renderer", d.info.Renderer),
		zap.String("glsl", d.info.GLSLVersion),
	)
	d.log.Debug("supported extensions",
		zap.Int("count", len(d.info.Extensions)),
		zap.Strings("extensions", d.info.Extensions),
	)

	// Core profile refuses attribute pointers without a bound VAO.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	return d, nil
}

func extensions() []string {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	exts := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		exts = append(exts, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))))
	}
	return exts
}

// Close releases the vertex array object.
func (d *Device) Close() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

// CompileShader compiles a single shader of the given stage.
func (d *Device) CompileShader(stage gpu.Stage, source string) (uint32, string, bool) {
	shader := gl.CreateShader(shaderType(stage))
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := readLog(logLen, func(buf *uint8) {
			gl.GetShaderInfoLog(shader, logLen, nil, buf)
		})
		gl.DeleteShader(shader)
		return 0, infoLog, false
	}
	return shader, "", true
}

// LinkProgram links two compiled stages.
func (d *Device) LinkProgram(vertex, fragment uint32) (uint32, string, bool) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertex)
	gl.AttachShader(program, fragment)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := readLog(logLen, func(buf *uint8) {
			gl.GetProgramInfoLog(program, logLen, nil, buf)
		})
		gl.DeleteProgram(program)
		return 0, infoLog, false
	}

	gl.DetachShader(program, vertex)
	gl.DetachShader(program, fragment)
	return program, "", true
}

func readLog(length int32, fill func(*uint8)) string {
	if length <= 0 {
		return ""
	}
	buf := make([]byte, length)
	fill(&buf[0])
	return gl.GoStr(&buf[0])
}

func (d *Device) DeleteShader(id uint32)  { gl.DeleteShader(id) }
func (d *Device) DeleteProgram(id uint32) { gl.DeleteProgram(id) }
func (d *Device) UseProgram(id uint32)    { gl.UseProgram(id) }

func (d *Device) AttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// NewVertexBuffer uploads static float data into an array buffer.
func (d *Device) NewVertexBuffer(data []float32) uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(gl.ARRAY_BUFFER, id)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, unsafe.Pointer(&data[0]), gl.STATIC_DRAW)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return id
}

// NewIndexBuffer uploads static 16-bit indices into an element buffer.
func (d *Device) NewIndexBuffer(data []uint16) uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, id)
	if len(data) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data)*2, unsafe.Pointer(&data[0]), gl.STATIC_DRAW)
	}
	return id
}

func (d *Device) DeleteBuffer(id uint32) {
	gl.DeleteBuffers(1, &id)
}

func (d *Device) BindAttrib(location int32, buffer uint32, components int32) {
	if location < 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	gl.VertexAttribPointer(uint32(location), components, gl.FLOAT, false, 0, nil)
	gl.EnableVertexAttribArray(uint32(location))
}

func (d *Device) BindIndices(buffer uint32) {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buffer)
}

func (d *Device) NewTexture() uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	return id
}

func (d *Device) DeleteTexture(id uint32) {
	gl.DeleteTextures(1, &id)
}

func (d *Device) UploadTexture(id uint32, width, height int, pixels []byte) {
	if width <= 0 || height <= 0 || len(pixels) < width*height*4 {
		d.log.Warn("Skipping texture upload with missing pixels",
			zap.Int("width", width),
			zap.Int("height", height),
			zap.Int("bytes", len(pixels)),
		)
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(width), int32(height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
}

func (d *Device) GenerateMipmap(id uint32) {
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.GenerateMipmap(gl.TEXTURE_2D)
}

func (d *Device) SetTextureParams(id uint32, p gpu.TextureParams) {
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapMode(p.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapMode(p.WrapT))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filterMode(p.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filterMode(p.MagFilter))
}

func (d *Device) BindTexture(unit uint32, id uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, id)
}

func (d *Device) SetUniformMat4(location int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (d *Device) SetUniformInt(location int32, v int32) {
	gl.Uniform1i(location, v)
}

func (d *Device) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (d *Device) Clear(c gpu.Color, depth float32) {
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.ClearDepth(float64(depth))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) EnableDepthTest(fn gpu.DepthFunc) {
	gl.Enable(gl.DEPTH_TEST)
	switch fn {
	case gpu.DepthLessEqual:
		gl.DepthFunc(gl.LEQUAL)
	default:
		gl.DepthFunc(gl.LESS)
	}
}

func (d *Device) DrawElements(mode gpu.Primitive, count int32) {
	gl.DrawElements(primitive(mode), count, gl.UNSIGNED_SHORT, nil)
}

func (d *Device) DrawArrays(mode gpu.Primitive, first, count int32) {
	gl.DrawArrays(primitive(mode), first, count)
}

func (d *Device) ReadPixels(x, y, width, height int32) []byte {
	pixels := make([]byte, int(width)*int(height)*4)
	if len(pixels) == 0 {
		return pixels
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(x, y, width, height, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels
}

func shaderType(s gpu.Stage) uint32 {
	if s == gpu.StageFragment {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

func primitive(p gpu.Primitive) uint32 {
	if p == gpu.TriangleStrip {
		return gl.TRIANGLE_STRIP
	}
	return gl.TRIANGLES
}

func wrapMode(w gpu.Wrap) int32 {
	if w == gpu.WrapClampToEdge {
		return gl.CLAMP_TO_EDGE
	}
	return gl.REPEAT
}

func filterMode(f gpu.Filter) int32 {
	switch f {
	case gpu.FilterNearest:
		return gl.NEAREST
	case gpu.FilterNearestMipmapLinear:
		return gl.NEAREST_MIPMAP_LINEAR
	case gpu.FilterLinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.LINEAR
	}
}
