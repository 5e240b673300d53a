// Package shader compiles and links GLSL programs and resolves their
// attribute and uniform slots.
package shader

import (
	"errors"
	"fmt"

	"github.com/Faultbox/gltour/internal/engine/gpu"
)

// Attribute names shared by the embedded shaders.
const (
	AttribPosition = "aVertexPosition"
	AttribNormal   = "aVertexNormal"
	AttribTexCoord = "aTextureCoord"
	AttribColor    = "aVertexColor"
)

// Uniform names shared by the embedded shaders.
const (
	UniformProjection = "uProjectionMatrix"
	UniformModelView  = "uModelViewMatrix"
	UniformNormal     = "uNormalMatrix"
	UniformSampler    = "uSampler"
)

// ErrMissingBinding is returned when a linked program lacks an attribute or
// uniform its layout requires.
var ErrMissingBinding = errors.New("shader: missing binding")

// BuildError reports a failed compile or link together with the driver log.
type BuildError struct {
	Stage string // "vertex", "fragment" or "link"
	Log   string
}

func (e *BuildError) Error() string {
	if e.Stage == "link" {
		return fmt.Sprintf("link: %s", e.Log)
	}
	return fmt.Sprintf("%s shader: %s", e.Stage, e.Log)
}

// Source is a vertex/fragment pair.
type Source struct {
	Name     string
	Vertex   string
	Fragment string
}

// Layout lists the slots a program must expose.
type Layout struct {
	Attributes []string
	Uniforms   []string
}

// Program is a linked shader program with resolved slots.
type Program struct {
	ID       uint32
	Name     string
	attribs  map[string]int32
	uniforms map[string]int32
}

// Link compiles both stages of src, links them and resolves every slot in
// layout. Any failure is returned without a usable program.
func Link(dev gpu.Device, src Source, layout Layout) (*Program, error) {
	vert, err := compile(dev, gpu.StageVertex, src.Vertex)
	if err != nil {
		return nil, err
	}
	defer dev.DeleteShader(vert)

	frag, err := compile(dev, gpu.StageFragment, src.Fragment)
	if err != nil {
		return nil, err
	}
	defer dev.DeleteShader(frag)

	id, infoLog, ok := dev.LinkProgram(vert, frag)
	if !ok {
		return nil, &BuildError{Stage: "link", Log: nonEmpty(infoLog)}
	}

	p := &Program{
		ID:       id,
		Name:     src.Name,
		attribs:  make(map[string]int32, len(layout.Attributes)),
		uniforms: make(map[string]int32, len(layout.Uniforms)),
	}
	for _, name := range layout.Attributes {
		loc := dev.AttribLocation(id, name)
		if loc < 0 {
			dev.DeleteProgram(id)
			return nil, fmt.Errorf("%w: attribute %q in program %q", ErrMissingBinding, name, src.Name)
		}
		p.attribs[name] = loc
	}
	for _, name := range layout.Uniforms {
		loc := dev.UniformLocation(id, name)
		if loc < 0 {
			dev.DeleteProgram(id)
			return nil, fmt.Errorf("%w: uniform %q in program %q", ErrMissingBinding, name, src.Name)
		}
		p.uniforms[name] = loc
	}
	return p, nil
}

func compile(dev gpu.Device, stage gpu.Stage, source string) (uint32, error) {
	id, infoLog, ok := dev.CompileShader(stage, source)
	if !ok {
		return 0, &BuildError{Stage: stage.String(), Log: nonEmpty(infoLog)}
	}
	return id, nil
}

// Drivers may fail without writing a log; callers still get a diagnostic.
func nonEmpty(infoLog string) string {
	if infoLog == "" {
		return "no diagnostic reported by driver"
	}
	return infoLog
}

// Attrib returns the slot of a resolved attribute, or -1.
func (p *Program) Attrib(name string) int32 {
	if loc, ok := p.attribs[name]; ok {
		return loc
	}
	return -1
}

// Uniform returns the slot of a resolved uniform, or -1.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	return -1
}

// Has reports whether the program resolved the named attribute or uniform.
func (p *Program) Has(name string) bool {
	_, a := p.attribs[name]
	_, u := p.uniforms[name]
	return a || u
}

// Release deletes the program.
func (p *Program) Release(dev gpu.Device) {
	if p.ID != 0 {
		dev.DeleteProgram(p.ID)
		p.ID = 0
	}
}
