// Package geometry builds the static vertex data drawn by the tour scenes.
package geometry

import "github.com/Faultbox/gltour/internal/engine/gpu"

// VertexSet is immutable vertex attribute data for one mesh.
// Attribute slices are parallel: vertex i uses element i of each.
type VertexSet struct {
	Positions    []float32
	PositionSize int32 // components per position, 2 or 3
	Normals      []float32
	TexCoords    []float32
	Colors       []float32 // RGBA
	Indices      []uint16
	Mode         gpu.Primitive
}

// VertexCount returns the number of vertices in the set.
func (v VertexSet) VertexCount() int {
	if v.PositionSize == 0 {
		return 0
	}
	return len(v.Positions) / int(v.PositionSize)
}

// Indexed reports whether the set is drawn through an index buffer.
func (v VertexSet) Indexed() bool {
	return len(v.Indices) > 0
}

// face is one side of the cube: outward normal and four corners wound
// counter-clockwise when viewed from outside.
type face struct {
	normal  [3]float32
	corners [4][3]float32
}

var cubeFaces = [6]face{
	{ // front
		normal:  [3]float32{0, 0, 1},
		corners: [4][3]float32{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}},
	},
	{ // back
		normal:  [3]float32{0, 0, -1},
		corners: [4][3]float32{{-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}, {1, -1, -1}},
	},
	{ // top
		normal:  [3]float32{0, 1, 0},
		corners: [4][3]float32{{-1, 1, -1}, {-1, 1, 1}, {1, 1, 1}, {1, 1, -1}},
	},
	{ // bottom
		normal:  [3]float32{0, -1, 0},
		corners: [4][3]float32{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}},
	},
	{ // right
		normal:  [3]float32{1, 0, 0},
		corners: [4][3]float32{{1, -1, -1}, {1, 1, -1}, {1, 1, 1}, {1, -1, 1}},
	},
	{ // left
		normal:  [3]float32{-1, 0, 0},
		corners: [4][3]float32{{-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}},
	},
}

// Texture rows are uploaded top row first, so v=1 is the bottom of the image.
var faceTexCoords = [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

// Face colors of the untextured cube: red, green, blue, cyan, magenta, yellow.
var faceColors = [6][4]float32{
	{1, 0, 0, 1},
	{0, 1, 0, 1},
	{0, 0, 1, 1},
	{0, 1, 1, 1},
	{1, 0, 1, 1},
	{1, 1, 0, 1},
}

// Cube returns a 2x2x2 cube centered on the origin with 24 vertices
// (4 per face), outward normals, per-face texture coordinates and
// 36 indices forming two counter-clockwise triangles per face.
func Cube() VertexSet {
	set := VertexSet{
		Positions:    make([]float32, 0, 24*3),
		PositionSize: 3,
		Normals:      make([]float32, 0, 24*3),
		TexCoords:    make([]float32, 0, 24*2),
		Indices:      make([]uint16, 0, 36),
		Mode:         gpu.Triangles,
	}

	for i, f := range cubeFaces {
		base := uint16(i * 4)
		for j, c := range f.corners {
			set.Positions = append(set.Positions, c[0], c[1], c[2])
			set.Normals = append(set.Normals, f.normal[0], f.normal[1], f.normal[2])
			set.TexCoords = append(set.TexCoords, faceTexCoords[j][0], faceTexCoords[j][1])
		}
		set.Indices = append(set.Indices,
			base, base+1, base+2,
			base, base+2, base+3,
		)
	}
	return set
}

// ColoredCube returns Cube with one solid color per face.
func ColoredCube() VertexSet {
	set := Cube()
	set.Colors = make([]float32, 0, 24*4)
	for _, c := range faceColors {
		for range 4 {
			set.Colors = append(set.Colors, c[:]...)
		}
	}
	return set
}

// Quad returns a 2x2 square in the XY plane drawn as a 4-vertex triangle
// strip with white, red, green and blue corners.
func Quad() VertexSet {
	return VertexSet{
		Positions: []float32{
			1, 1,
			-1, 1,
			1, -1,
			-1, -1,
		},
		PositionSize: 2,
		Colors: []float32{
			1, 1, 1, 1,
			1, 0, 0, 1,
			0, 1, 0, 1,
			0, 0, 1, 1,
		},
		Mode: gpu.TriangleStrip,
	}
}
