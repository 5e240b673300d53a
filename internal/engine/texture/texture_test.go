package texture

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/gltour/internal/engine/gpu"
	"github.com/Faultbox/gltour/internal/engine/gpu/gputest"
	"github.com/Faultbox/gltour/internal/engine/media"
)

// fakeVideo is a manually stepped video source.
type fakeVideo struct {
	mu    sync.Mutex
	ready chan struct{}
	img   *image.RGBA
	seq   uint64
}

func newFakeVideo() *fakeVideo {
	return &fakeVideo{ready: make(chan struct{})}
}

func (v *fakeVideo) Ready() <-chan struct{} { return v.ready }

func (v *fakeVideo) Frame() (*image.RGBA, uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.img, v.seq
}

func (v *fakeVideo) Close() error { return nil }

func (v *fakeVideo) advance(c color.RGBA) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.img = filled(4, 2, c)
	v.seq++
}

func filled(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func texture(t *testing.T, dev *gputest.Device, u *Updater) gputest.Texture {
	t.Helper()
	tex, ok := dev.Texture(u.ID())
	require.True(t, ok)
	return tex
}

func TestNewPlaceholder(t *testing.T) {
	tests := []struct {
		mode   Mode
		params gpu.TextureParams
		levels int
	}{
		{ModeStatic, gpu.DefaultTextureParams(), 1},
		{ModeStreaming, ClampLinear, 1},
	}
	for _, tt := range tests {
		dev := gputest.New()
		u := New(dev, tt.mode)

		tex := texture(t, dev, u)
		assert.Equal(t, 1, tex.Width)
		assert.Equal(t, 1, tex.Height)
		assert.Equal(t, []byte{0, 0, 255, 255}, tex.Pixels)
		assert.Equal(t, tt.params, tex.Params)
		assert.Equal(t, tt.levels, tex.Levels)
	}
}

func TestSetImageMipmapsOnlyPowerOfTwo(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		params        gpu.TextureParams
		levels        int
	}{
		{"256x256", 256, 256, gpu.DefaultTextureParams(), 9},
		{"64x16", 64, 16, gpu.DefaultTextureParams(), 7},
		{"300x200", 300, 200, ClampLinear, 1},
		{"256x100", 256, 100, ClampLinear, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := gputest.New()
			u := New(dev, ModeStatic)
			u.SetImage(filled(tt.width, tt.height, color.RGBA{10, 20, 30, 255}))

			tex := texture(t, dev, u)
			assert.Equal(t, tt.width, tex.Width)
			assert.Equal(t, tt.height, tex.Height)
			assert.Equal(t, tt.params, tex.Params)
			assert.Equal(t, tt.levels, tex.Levels)
			assert.Equal(t, []byte{10, 20, 30, 255}, tex.Pixels[:4])
		})
	}
}

func TestAttachAppliesFirstImage(t *testing.T) {
	dev := gputest.New()
	u := New(dev, ModeStatic)

	results := make(chan media.Result, 1)
	u.Attach(results)

	assert.False(t, u.Refresh(), "nothing delivered yet")
	assert.Equal(t, Placeholder[:], texture(t, dev, u).Pixels)

	results <- media.Result{Image: filled(2, 2, color.RGBA{255, 0, 0, 255})}
	close(results)

	assert.True(t, u.Refresh())
	w, h := u.Size()
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)

	uploads := texture(t, dev, u).Uploads
	assert.False(t, u.Refresh())
	assert.Equal(t, uploads, texture(t, dev, u).Uploads)
}

func TestEmptyImageKeepsPlaceholder(t *testing.T) {
	dev := gputest.New()
	u := New(dev, ModeStatic)

	results := make(chan media.Result, 1)
	results <- media.Result{Image: image.NewRGBA(image.Rect(0, 0, 0, 0))}
	u.Attach(results)

	assert.False(t, u.Refresh())
	tex := texture(t, dev, u)
	assert.Equal(t, Placeholder[:], tex.Pixels)
	assert.Equal(t, 1, tex.Uploads)
	assert.Equal(t, gpu.DefaultTextureParams(), tex.Params)
	w, h := u.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestStreamSkipsEmptyFrames(t *testing.T) {
	dev := gputest.New()
	u := New(dev, ModeStreaming)
	v := newFakeVideo()
	close(v.ready)
	u.Stream(v)

	v.mu.Lock()
	v.img = image.NewRGBA(image.Rect(0, 0, 0, 0))
	v.seq++
	v.mu.Unlock()

	assert.False(t, u.Refresh())
	assert.Equal(t, 1, texture(t, dev, u).Uploads)

	v.advance(color.RGBA{0, 255, 0, 255})
	assert.True(t, u.Refresh())
	assert.Equal(t, 2, texture(t, dev, u).Uploads)
}

func TestAttachFailureKeepsPlaceholder(t *testing.T) {
	dev := gputest.New()
	u := New(dev, ModeStatic)

	results := make(chan media.Result, 1)
	results <- media.Result{Err: errors.New("404 not found")}
	close(results)
	u.Attach(results)

	assert.False(t, u.Refresh())
	tex := texture(t, dev, u)
	assert.Equal(t, Placeholder[:], tex.Pixels)
	assert.Equal(t, 1, tex.Uploads)
}

func TestStreamWaitsForReady(t *testing.T) {
	dev := gputest.New()
	u := New(dev, ModeStreaming)
	v := newFakeVideo()
	u.Stream(v)

	// Frames decoded before readiness are not uploaded.
	v.advance(color.RGBA{255, 0, 0, 255})
	for i := 0; i < 3; i++ {
		assert.False(t, u.Refresh())
	}
	assert.False(t, u.Ready())
	assert.Equal(t, 1, texture(t, dev, u).Uploads)

	close(v.ready)
	assert.True(t, u.Refresh())
	assert.True(t, u.Ready())
	assert.Equal(t, 2, texture(t, dev, u).Uploads)
}

func TestStreamUploadsOnlyNewFrames(t *testing.T) {
	dev := gputest.New()
	u := New(dev, ModeStreaming)
	v := newFakeVideo()
	close(v.ready)
	u.Stream(v)

	v.advance(color.RGBA{255, 0, 0, 255})
	assert.True(t, u.Refresh())
	assert.False(t, u.Refresh(), "same frame is not re-uploaded")

	// Several advances between frames still give one upload.
	v.advance(color.RGBA{0, 255, 0, 255})
	v.advance(color.RGBA{0, 0, 255, 255})
	assert.True(t, u.Refresh())
	assert.False(t, u.Refresh())

	tex := texture(t, dev, u)
	assert.Equal(t, 3, tex.Uploads)
	assert.Equal(t, []byte{0, 0, 255, 255}, tex.Pixels[:4])
	assert.Equal(t, ClampLinear, tex.Params, "streamed frames never change the sampler")
	assert.Equal(t, 1, tex.Levels)
}

func TestReleaseDeletesTexture(t *testing.T) {
	dev := gputest.New()
	u := New(dev, ModeStatic)
	u.Release()
	u.Release()

	_, _, _, textures := dev.Live()
	assert.Zero(t, textures)
}

func TestIsPowerOfTwo(t *testing.T) {
	for n, want := range map[int]bool{
		-4: false, 0: false, 1: true, 2: true, 3: false,
		64: true, 100: false, 256: true, 1024: true, 1023: false,
	} {
		assert.Equal(t, want, IsPowerOfTwo(n), "n=%d", n)
	}
}
