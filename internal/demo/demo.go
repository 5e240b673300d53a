// Package demo lists the tour scenes. Each variant is a parameter set for
// the one shared pipeline rather than a separate program.
package demo

import (
	"fmt"
	"sort"

	"github.com/Faultbox/gltour/internal/engine/geometry"
	"github.com/Faultbox/gltour/internal/engine/gpu"
	"github.com/Faultbox/gltour/internal/engine/shader"
	"github.com/Faultbox/gltour/internal/engine/transform"
)

// TextureSource selects what feeds a variant's texture.
type TextureSource int

const (
	TextureNone TextureSource = iota
	TextureImage
	TextureVideo
)

// Background colors.
var (
	Black = gpu.Color{R: 0, G: 0, B: 0, A: 1}
	Gray  = gpu.Color{R: 0.2, G: 0.2, B: 0.2, A: 1}
)

// Variant describes one scene.
type Variant struct {
	Name  string
	Title string
	// Program is the embedded shader program; empty for a clear-only scene.
	Program   string
	Geometry  func() geometry.VertexSet
	Transform transform.Options
	Texture   TextureSource
	Clear     gpu.Color
}

// ClearOnly reports whether the variant draws nothing but the background.
func (v Variant) ClearOnly() bool {
	return v.Program == ""
}

var variants = map[string]Variant{
	"hello": {
		Name:  "hello",
		Title: "Getting started",
		Clear: Black,
	},
	"rotate": {
		Name:     "rotate",
		Title:    "Animating objects",
		Program:  shader.ProgramColor,
		Geometry: geometry.Quad,
		Clear:    Gray,
	},
	"cube": {
		Name:      "cube",
		Title:     "Creating 3D objects",
		Program:   shader.ProgramColor,
		Geometry:  geometry.ColoredCube,
		Transform: transform.Options{MultiAxis: true},
		Clear:     Gray,
	},
	"texture": {
		Name:      "texture",
		Title:     "Using textures",
		Program:   shader.ProgramTextured,
		Geometry:  geometry.Cube,
		Transform: transform.Options{MultiAxis: true},
		Texture:   TextureImage,
		Clear:     Gray,
	},
	"lighting": {
		Name:      "lighting",
		Title:     "Lighting",
		Program:   shader.ProgramLit,
		Geometry:  geometry.Cube,
		Transform: transform.Options{MultiAxis: true, Lit: true},
		Texture:   TextureImage,
		Clear:     Gray,
	},
	"video": {
		Name:      "video",
		Title:     "Animating textures",
		Program:   shader.ProgramLit,
		Geometry:  geometry.Cube,
		Transform: transform.Options{MultiAxis: true, Lit: true},
		Texture:   TextureVideo,
		Clear:     Gray,
	},
}

// Lookup returns the variant with the given name.
func Lookup(name string) (Variant, error) {
	v, ok := variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown demo %q (available: %v)", name, Names())
	}
	return v, nil
}

// Names returns every variant name in sorted order.
func Names() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
