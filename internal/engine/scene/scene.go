// Package scene assembles the draw pipeline for one demo variant: linked
// program, uploaded geometry and an optional texture source.
package scene

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/gltour/internal/demo"
	"github.com/Faultbox/gltour/internal/engine/geometry"
	"github.com/Faultbox/gltour/internal/engine/gpu"
	"github.com/Faultbox/gltour/internal/engine/media"
	"github.com/Faultbox/gltour/internal/engine/shader"
	"github.com/Faultbox/gltour/internal/engine/texture"
	"github.com/Faultbox/gltour/internal/engine/transform"
	"github.com/Faultbox/gltour/internal/logger"
)

// Assets names the texture sources. Each may be a path, file:// or
// http(s):// URL.
type Assets struct {
	Image string
	Video string
}

// Scene is the built pipeline of one variant.
type Scene struct {
	variant demo.Variant
	program *shader.Program
	buffers *geometry.Buffers
	texture *texture.Updater
	video   media.Video
	cancel  context.CancelFunc
	log     *zap.Logger
}

// Build links the variant's program, uploads its geometry and starts
// loading its texture source. Loading continues in the background after
// Build returns; the placeholder texture is used until it completes.
func Build(ctx context.Context, dev gpu.Device, v demo.Variant, assets Assets) (*Scene, error) {
	s := &Scene{
		variant: v,
		log:     logger.Named("scene"),
	}
	if v.ClearOnly() {
		s.log.Info("Scene built", zap.String("demo", v.Name), zap.Bool("clear_only", true))
		return s, nil
	}

	src, err := shader.Load(v.Program)
	if err != nil {
		return nil, err
	}
	s.program, err = shader.Link(dev, src, shader.LayoutFor(v.Program))
	if err != nil {
		return nil, fmt.Errorf("building %s program: %w", v.Program, err)
	}

	s.buffers = geometry.Upload(dev, v.Geometry())

	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	switch v.Texture {
	case demo.TextureImage:
		s.texture = texture.New(dev, texture.ModeStatic)
		s.texture.Attach(media.LoadImage(loadCtx, assets.Image))
	case demo.TextureVideo:
		s.texture = texture.New(dev, texture.ModeStreaming)
		s.video = media.OpenVideo(loadCtx, assets.Video)
		s.texture.Stream(s.video)
	}

	s.log.Info("Scene built",
		zap.String("demo", v.Name),
		zap.String("program", v.Program),
		zap.Int32("count", s.buffers.Count),
		zap.Bool("indexed", s.buffers.Indexed),
	)
	return s, nil
}

// Variant returns the variant the scene was built for.
func (s *Scene) Variant() demo.Variant {
	return s.variant
}

// Transform returns a fresh transformer configured for the variant.
func (s *Scene) Transform() *transform.Transformer {
	return transform.New(s.variant.Transform)
}

// Texture returns the texture updater, or nil for untextured variants.
func (s *Scene) Texture() *texture.Updater {
	return s.texture
}

// Refresh polls the texture source. It never blocks.
func (s *Scene) Refresh() {
	if s.texture != nil {
		s.texture.Refresh()
	}
}

// Draw binds the pipeline state and issues the single draw call.
// Clear-only scenes draw nothing.
func (s *Scene) Draw(dev gpu.Device, f transform.Frame) {
	if s.program == nil {
		return
	}
	p, b := s.program, s.buffers

	dev.UseProgram(p.ID)
	dev.BindAttrib(p.Attrib(shader.AttribPosition), b.Position, b.PositionSize)
	if p.Has(shader.AttribNormal) {
		dev.BindAttrib(p.Attrib(shader.AttribNormal), b.Normal, 3)
	}
	if p.Has(shader.AttribTexCoord) {
		dev.BindAttrib(p.Attrib(shader.AttribTexCoord), b.TexCoord, 2)
	}
	if p.Has(shader.AttribColor) {
		dev.BindAttrib(p.Attrib(shader.AttribColor), b.Color, 4)
	}
	if b.Indexed {
		dev.BindIndices(b.Index)
	}

	dev.SetUniformMat4(p.Uniform(shader.UniformProjection), f.Projection)
	dev.SetUniformMat4(p.Uniform(shader.UniformModelView), f.ModelView)
	if p.Has(shader.UniformNormal) {
		dev.SetUniformMat4(p.Uniform(shader.UniformNormal), f.Normal)
	}
	if s.texture != nil {
		dev.BindTexture(0, s.texture.ID())
		dev.SetUniformInt(p.Uniform(shader.UniformSampler), 0)
	}

	b.Draw(dev)
}

// Release stops background loading and frees every GPU object.
func (s *Scene) Release(dev gpu.Device) {
	if s.cancel != nil {
		s.cancel()
	}
	if s.video != nil {
		if err := s.video.Close(); err != nil {
			s.log.Warn("Closing video", zap.Error(err))
		}
		s.video = nil
	}
	if s.texture != nil {
		s.texture.Release()
		s.texture = nil
	}
	if s.buffers != nil {
		s.buffers.Release(dev)
		s.buffers = nil
	}
	if s.program != nil {
		s.program.Release(dev)
		s.program = nil
	}
}
