// Package gputest provides an in-memory gpu.Device for tests.
//
// The device keeps every object it is asked to create, so tests can read
// back texture pixels, uniform values and draw calls without a GL context.
// Shader "compilation" scans GLSL declarations: a source without a main
// function fails with a diagnostic, and declared inputs and uniforms become
// the program's active attributes and uniforms.
package gputest

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/gltour/internal/engine/gpu"
)

// Texture is the recorded state of one texture object.
type Texture struct {
	Width, Height int
	Pixels        []byte
	Levels        int // 1 after an upload, more after GenerateMipmap
	Params        gpu.TextureParams
	Uploads       int
}

// Buffer is the recorded contents of one buffer object.
type Buffer struct {
	Floats  []float32
	Indices []uint16
}

// Attrib is the recorded binding of one attribute slot.
type Attrib struct {
	Buffer     uint32
	Components int32
}

// DrawCall records one draw.
type DrawCall struct {
	Mode    gpu.Primitive
	Count   int32
	Indexed bool
	Program uint32
	Texture uint32 // bound to unit 0 at draw time
}

// ClearCall records one clear.
type ClearCall struct {
	Color gpu.Color
	Depth float32
}

type shaderObj struct {
	stage    gpu.Stage
	inputs   []string
	uniforms []string
	position bool
}

type programObj struct {
	attribs  map[string]int32
	uniforms map[string]int32
}

// Device records every call. The zero value is not usable; call New.
type Device struct {
	mu sync.Mutex

	nextID uint32

	shaders  map[uint32]*shaderObj
	programs map[uint32]*programObj
	buffers  map[uint32]*Buffer
	textures map[uint32]*Texture

	// FailLink forces the next LinkProgram to fail with this log.
	FailLink string

	CurrentProgram uint32
	Attribs        map[int32]Attrib
	BoundIndices   uint32
	BoundTextures  map[uint32]uint32
	UniformMat4    map[int32]mgl32.Mat4
	UniformInt     map[int32]int32
	ViewportRect   [4]int32
	ViewportCalls  int
	DepthTest      bool
	Depth          gpu.DepthFunc
	Clears         []ClearCall
	Draws          []DrawCall
	Framebuffer    []byte
	Closed         bool
}

var _ gpu.Device = (*Device)(nil)

// New returns an empty recording device.
func New() *Device {
	return &Device{
		shaders:       make(map[uint32]*shaderObj),
		programs:      make(map[uint32]*programObj),
		buffers:       make(map[uint32]*Buffer),
		textures:      make(map[uint32]*Texture),
		Attribs:       make(map[int32]Attrib),
		BoundTextures: make(map[uint32]uint32),
		UniformMat4:   make(map[int32]mgl32.Mat4),
		UniformInt:    make(map[int32]int32),
	}
}

func (d *Device) id() uint32 {
	d.nextID++
	return d.nextID
}

var (
	mainRe     = regexp.MustCompile(`void\s+main\s*\(`)
	inputRe    = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?(?:in|attribute)\s+\w+\s+(\w+)\s*;`)
	uniformRe  = regexp.MustCompile(`(?m)^\s*uniform\s+\w+\s+(\w+)\s*;`)
	positionRe = regexp.MustCompile(`gl_Position\s*=`)
)

func (d *Device) CompileShader(stage gpu.Stage, source string) (uint32, string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !mainRe.MatchString(source) {
		return 0, "ERROR: 0:1: 'main' : function not defined", false
	}
	if strings.Count(source, "{") != strings.Count(source, "}") {
		return 0, "ERROR: 0:1: '' : syntax error: unbalanced braces", false
	}

	s := &shaderObj{stage: stage, position: positionRe.MatchString(source)}
	for _, m := range uniformRe.FindAllStringSubmatch(source, -1) {
		s.uniforms = append(s.uniforms, m[1])
	}
	if stage == gpu.StageVertex {
		for _, m := range inputRe.FindAllStringSubmatch(source, -1) {
			s.inputs = append(s.inputs, m[1])
		}
	}

	id := d.id()
	d.shaders[id] = s
	return id, "", true
}

func (d *Device) LinkProgram(vertex, fragment uint32) (uint32, string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailLink != "" {
		msg := d.FailLink
		d.FailLink = ""
		return 0, msg, false
	}
	vs, ok := d.shaders[vertex]
	if !ok || vs.stage != gpu.StageVertex {
		return 0, fmt.Sprintf("error: shader %d is not a vertex shader", vertex), false
	}
	fs, ok := d.shaders[fragment]
	if !ok || fs.stage != gpu.StageFragment {
		return 0, fmt.Sprintf("error: shader %d is not a fragment shader", fragment), false
	}
	if !vs.position {
		return 0, "error: vertex shader does not write gl_Position", false
	}

	p := &programObj{attribs: make(map[string]int32), uniforms: make(map[string]int32)}
	for i, name := range vs.inputs {
		p.attribs[name] = int32(i)
	}
	loc := int32(0)
	for _, name := range append(append([]string{}, vs.uniforms...), fs.uniforms...) {
		if _, dup := p.uniforms[name]; !dup {
			p.uniforms[name] = loc
			loc++
		}
	}

	id := d.id()
	d.programs[id] = p
	return id, "", true
}

func (d *Device) DeleteShader(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.shaders, id)
}

func (d *Device) DeleteProgram(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.programs, id)
}

func (d *Device) UseProgram(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CurrentProgram = id
}

func (d *Device) AttribLocation(program uint32, name string) int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.programs[program]; ok {
		if loc, ok := p.attribs[name]; ok {
			return loc
		}
	}
	return -1
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.programs[program]; ok {
		if loc, ok := p.uniforms[name]; ok {
			return loc
		}
	}
	return -1
}

func (d *Device) NewVertexBuffer(data []float32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.id()
	d.buffers[id] = &Buffer{Floats: append([]float32(nil), data...)}
	return id
}

func (d *Device) NewIndexBuffer(data []uint16) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.id()
	d.buffers[id] = &Buffer{Indices: append([]uint16(nil), data...)}
	return id
}

func (d *Device) DeleteBuffer(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, id)
}

func (d *Device) BindAttrib(location int32, buffer uint32, components int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if location < 0 {
		return
	}
	d.Attribs[location] = Attrib{Buffer: buffer, Components: components}
}

func (d *Device) BindIndices(buffer uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.BoundIndices = buffer
}

func (d *Device) NewTexture() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.id()
	d.textures[id] = &Texture{Params: gpu.DefaultTextureParams()}
	return id
}

func (d *Device) DeleteTexture(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, id)
}

func (d *Device) UploadTexture(id uint32, width, height int, pixels []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return
	}
	t.Width, t.Height = width, height
	t.Pixels = append(t.Pixels[:0], pixels...)
	t.Levels = 1
	t.Uploads++
}

func (d *Device) GenerateMipmap(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return
	}
	levels, w, h := 1, t.Width, t.Height
	for w > 1 || h > 1 {
		w, h = max(w/2, 1), max(h/2, 1)
		levels++
	}
	t.Levels = levels
}

func (d *Device) SetTextureParams(id uint32, params gpu.TextureParams) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.textures[id]; ok {
		t.Params = params
	}
}

func (d *Device) BindTexture(unit uint32, id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.BoundTextures[unit] = id
}

func (d *Device) SetUniformMat4(location int32, m mgl32.Mat4) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.UniformMat4[location] = m
}

func (d *Device) SetUniformInt(location int32, v int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.UniformInt[location] = v
}

func (d *Device) Viewport(x, y, width, height int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ViewportRect = [4]int32{x, y, width, height}
	d.ViewportCalls++
}

func (d *Device) Clear(color gpu.Color, depth float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Clears = append(d.Clears, ClearCall{Color: color, Depth: depth})
}

func (d *Device) EnableDepthTest(fn gpu.DepthFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.DepthTest = true
	d.Depth = fn
}

func (d *Device) DrawElements(mode gpu.Primitive, count int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Draws = append(d.Draws, DrawCall{
		Mode: mode, Count: count, Indexed: true,
		Program: d.CurrentProgram, Texture: d.BoundTextures[0],
	})
}

func (d *Device) DrawArrays(mode gpu.Primitive, first, count int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Draws = append(d.Draws, DrawCall{
		Mode: mode, Count: count,
		Program: d.CurrentProgram, Texture: d.BoundTextures[0],
	})
}

// ReadPixels returns Framebuffer if set, otherwise a zeroed buffer.
func (d *Device) ReadPixels(x, y, width, height int32) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]byte, int(width)*int(height)*4)
	copy(out, d.Framebuffer)
	return out
}

// Texture returns a copy of the recorded texture state.
func (d *Device) Texture(id uint32) (Texture, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return Texture{}, false
	}
	cp := *t
	cp.Pixels = append([]byte(nil), t.Pixels...)
	return cp, true
}

// Buffer returns the recorded buffer contents.
func (d *Device) Buffer(id uint32) (Buffer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return Buffer{}, false
	}
	return *b, true
}

// Live returns the number of shader, program, buffer and texture objects
// that have not been deleted.
func (d *Device) Live() (shaders, programs, buffers, textures int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.shaders), len(d.programs), len(d.buffers), len(d.textures)
}

// Close marks the device closed.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed = true
}
