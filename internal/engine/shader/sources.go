package shader

import (
	"embed"
	"fmt"
	"path"
)

//go:embed shaders/*.vert shaders/*.frag
var files embed.FS

// Embedded program names.
const (
	ProgramColor    = "color"
	ProgramTextured = "textured"
	ProgramLit      = "lit"
)

// Load returns the embedded vertex/fragment pair for a program name.
func Load(name string) (Source, error) {
	vert, err := files.ReadFile(path.Join("shaders", name+".vert"))
	if err != nil {
		return Source{}, fmt.Errorf("loading %s vertex source: %w", name, err)
	}
	frag, err := files.ReadFile(path.Join("shaders", name+".frag"))
	if err != nil {
		return Source{}, fmt.Errorf("loading %s fragment source: %w", name, err)
	}
	return Source{Name: name, Vertex: string(vert), Fragment: string(frag)}, nil
}

// LayoutFor returns the slots the embedded program exposes.
func LayoutFor(name string) Layout {
	switch name {
	case ProgramColor:
		return Layout{
			Attributes: []string{AttribPosition, AttribColor},
			Uniforms:   []string{UniformProjection, UniformModelView},
		}
	case ProgramTextured:
		return Layout{
			Attributes: []string{AttribPosition, AttribTexCoord},
			Uniforms:   []string{UniformProjection, UniformModelView, UniformSampler},
		}
	case ProgramLit:
		return Layout{
			Attributes: []string{AttribPosition, AttribNormal, AttribTexCoord},
			Uniforms:   []string{UniformProjection, UniformModelView, UniformNormal, UniformSampler},
		}
	default:
		return Layout{}
	}
}
