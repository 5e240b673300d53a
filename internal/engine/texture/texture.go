// Package texture keeps one GPU texture in sync with an image or video
// source without ever blocking the frame loop.
package texture

import (
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/gltour/internal/engine/gpu"
	"github.com/Faultbox/gltour/internal/engine/media"
	"github.com/Faultbox/gltour/internal/logger"
)

// Mode selects how the texture is sampled and fed.
type Mode int

const (
	// ModeStatic holds one still image, mipmapped when its size allows.
	ModeStatic Mode = iota
	// ModeStreaming is re-uploaded from a video every frame the video
	// advances. It never mipmaps.
	ModeStreaming
)

// Placeholder is the opaque blue pixel shown until a source delivers.
var Placeholder = [4]byte{0, 0, 255, 255}

// ClampLinear is the sampler state of streamed textures and of still
// images that cannot be mipmapped.
var ClampLinear = gpu.TextureParams{
	WrapS:     gpu.WrapClampToEdge,
	WrapT:     gpu.WrapClampToEdge,
	MinFilter: gpu.FilterLinear,
	MagFilter: gpu.FilterLinear,
}

// Updater owns one texture object and its source.
type Updater struct {
	dev  gpu.Device
	id   uint32
	mode Mode
	log  *zap.Logger

	pending <-chan media.Result

	video   media.Video
	ready   bool
	lastSeq uint64

	width, height int
}

// New creates the texture and fills it with the placeholder pixel, so it
// can be sampled immediately.
func New(dev gpu.Device, mode Mode) *Updater {
	u := &Updater{
		dev:    dev,
		id:     dev.NewTexture(),
		mode:   mode,
		log:    logger.Named("texture"),
		width:  1,
		height: 1,
	}
	dev.UploadTexture(u.id, 1, 1, Placeholder[:])
	if mode == ModeStreaming {
		dev.SetTextureParams(u.id, ClampLinear)
	} else {
		dev.SetTextureParams(u.id, gpu.DefaultTextureParams())
		dev.GenerateMipmap(u.id)
	}
	return u
}

// ID returns the texture object handle.
func (u *Updater) ID() uint32 {
	return u.id
}

// Mode returns the updater mode.
func (u *Updater) Mode() Mode {
	return u.mode
}

// Size returns the dimensions of the last upload.
func (u *Updater) Size() (width, height int) {
	return u.width, u.height
}

// SetImage uploads a still image. Power-of-two images get mipmaps and the
// default sampler; any other size is clamped and linearly filtered.
func (u *Updater) SetImage(img image.Image) {
	rgba := media.ToRGBA(img)
	if !u.upload(rgba) {
		return
	}

	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	if IsPowerOfTwo(w) && IsPowerOfTwo(h) {
		u.dev.SetTextureParams(u.id, gpu.DefaultTextureParams())
		u.dev.GenerateMipmap(u.id)
	} else {
		u.dev.SetTextureParams(u.id, ClampLinear)
	}
	u.log.Debug("Texture image set",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Bool("mipmapped", IsPowerOfTwo(w) && IsPowerOfTwo(h)),
	)
}

// upload replaces the texture contents. Empty images are skipped and the
// previous contents stay.
func (u *Updater) upload(img *image.RGBA) bool {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || h <= 0 || len(img.Pix) < w*h*4 {
		u.log.Warn("Ignoring empty texture image", zap.Int("width", w), zap.Int("height", h))
		return false
	}
	u.width, u.height = w, h
	u.dev.UploadTexture(u.id, w, h, img.Pix)
	return true
}

// Attach sets an asynchronous still-image source. The first result that
// arrives is applied by Refresh.
func (u *Updater) Attach(results <-chan media.Result) {
	u.pending = results
}

// Stream sets a video source. Frames are uploaded by Refresh once the
// video signals readiness.
func (u *Updater) Stream(v media.Video) {
	u.video = v
	u.ready = false
	u.lastSeq = 0
}

// Ready reports whether a streamed video has signalled readiness.
func (u *Updater) Ready() bool {
	return u.ready
}

// Refresh polls the attached source without blocking and performs at most
// one upload. It reports whether the texture changed.
func (u *Updater) Refresh() bool {
	if u.pending != nil && u.pollImage() {
		return true
	}
	if u.video != nil {
		return u.pollVideo()
	}
	return false
}

func (u *Updater) pollImage() bool {
	select {
	case r, ok := <-u.pending:
		u.pending = nil
		if !ok {
			return false
		}
		if r.Err != nil {
			u.log.Warn("Texture image failed to load, keeping placeholder", zap.Error(r.Err))
			return false
		}
		u.SetImage(r.Image)
		return true
	default:
		return false
	}
}

func (u *Updater) pollVideo() bool {
	if !u.ready {
		select {
		case <-u.video.Ready():
			u.ready = true
			u.log.Info("Video ready, streaming frames")
		default:
			return false
		}
	}

	img, seq := u.video.Frame()
	if img == nil || seq == u.lastSeq {
		return false
	}
	u.lastSeq = seq
	return u.upload(img)
}

// Release deletes the texture. The video source is not closed.
func (u *Updater) Release() {
	if u.id != 0 {
		u.dev.DeleteTexture(u.id)
		u.id = 0
	}
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
