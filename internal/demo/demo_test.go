package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/gltour/internal/engine/gpu"
	"github.com/Faultbox/gltour/internal/engine/shader"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"cube", "hello", "lighting", "rotate", "texture", "video"}, Names())
}

func TestLookup(t *testing.T) {
	v, err := Lookup("video")
	require.NoError(t, err)
	assert.Equal(t, TextureVideo, v.Texture)
	assert.True(t, v.Transform.Lit)
	assert.True(t, v.Transform.MultiAxis)

	_, err = Lookup("teapot")
	assert.ErrorContains(t, err, "teapot")
}

func TestVariantsAreConsistent(t *testing.T) {
	for _, name := range Names() {
		v, err := Lookup(name)
		require.NoError(t, err)

		t.Run(name, func(t *testing.T) {
			assert.Equal(t, name, v.Name)
			assert.NotEmpty(t, v.Title)
			if v.ClearOnly() {
				assert.Nil(t, v.Geometry)
				assert.Equal(t, TextureNone, v.Texture)
				return
			}

			require.NotNil(t, v.Geometry)
			assert.Equal(t, Gray, v.Clear)

			layout := shader.LayoutFor(v.Program)
			set := v.Geometry()
			textured := false
			for _, u := range layout.Uniforms {
				if u == shader.UniformSampler {
					textured = true
				}
			}
			assert.Equal(t, textured, v.Texture != TextureNone, "sampler iff textured")
			if textured {
				assert.NotEmpty(t, set.TexCoords)
			} else {
				assert.NotEmpty(t, set.Colors)
			}
			if v.Transform.Lit {
				assert.NotEmpty(t, set.Normals)
			}
		})
	}
}

func TestHelloClearsToBlack(t *testing.T) {
	v, err := Lookup("hello")
	require.NoError(t, err)
	assert.True(t, v.ClearOnly())
	assert.Equal(t, gpu.Color{A: 1}, v.Clear)
}

func TestRotateIsFlatQuad(t *testing.T) {
	v, err := Lookup("rotate")
	require.NoError(t, err)
	assert.False(t, v.Transform.MultiAxis)
	set := v.Geometry()
	assert.Equal(t, int32(2), set.PositionSize)
	assert.False(t, set.Indexed())
}
