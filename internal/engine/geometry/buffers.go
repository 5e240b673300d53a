package geometry

import "github.com/Faultbox/gltour/internal/engine/gpu"

// Buffers holds the GPU copies of a VertexSet. A zero handle means the
// attribute is absent.
type Buffers struct {
	Position     uint32
	PositionSize int32
	Normal       uint32
	TexCoord     uint32
	Color        uint32
	Index        uint32
	Count        int32 // indices when indexed, vertices otherwise
	Mode         gpu.Primitive
	Indexed      bool
}

// Upload copies every present attribute of set into static GPU buffers.
func Upload(dev gpu.Device, set VertexSet) *Buffers {
	b := &Buffers{
		Position:     dev.NewVertexBuffer(set.Positions),
		PositionSize: set.PositionSize,
		Mode:         set.Mode,
		Indexed:      set.Indexed(),
	}
	if len(set.Normals) > 0 {
		b.Normal = dev.NewVertexBuffer(set.Normals)
	}
	if len(set.TexCoords) > 0 {
		b.TexCoord = dev.NewVertexBuffer(set.TexCoords)
	}
	if len(set.Colors) > 0 {
		b.Color = dev.NewVertexBuffer(set.Colors)
	}
	if b.Indexed {
		b.Index = dev.NewIndexBuffer(set.Indices)
		b.Count = int32(len(set.Indices))
	} else {
		b.Count = int32(set.VertexCount())
	}
	return b
}

// Draw issues the single draw call for these buffers. Attributes and
// indices must already be bound.
func (b *Buffers) Draw(dev gpu.Device) {
	if b.Indexed {
		dev.DrawElements(b.Mode, b.Count)
		return
	}
	dev.DrawArrays(b.Mode, 0, b.Count)
}

// Release deletes every buffer this set owns.
func (b *Buffers) Release(dev gpu.Device) {
	for _, id := range []uint32{b.Position, b.Normal, b.TexCoord, b.Color, b.Index} {
		if id != 0 {
			dev.DeleteBuffer(id)
		}
	}
	*b = Buffers{}
}
