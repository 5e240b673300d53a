// Package debug provides developer tooling for a running session.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/Faultbox/gltour/internal/engine/gpu"
)

// Screenshotter saves the default framebuffer to PNG files.
type Screenshotter struct {
	dir    string
	prefix string
	now    func() time.Time
}

// NewScreenshotter writes files named <prefix>_<timestamp>.png into dir.
func NewScreenshotter(dir, prefix string) *Screenshotter {
	return &Screenshotter{
		dir:    dir,
		prefix: prefix,
		now:    time.Now,
	}
}

// Capture reads a width×height frame from dev and saves it.
// It returns the written file name.
func (s *Screenshotter) Capture(dev gpu.Device, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("invalid framebuffer size %dx%d", width, height)
	}
	pixels := dev.ReadPixels(0, 0, int32(width), int32(height))
	img, err := FlipRows(pixels, width, height)
	if err != nil {
		return "", err
	}
	return s.save(img)
}

// FlipRows converts bottom-row-first RGBA pixels into an image.
func FlipRows(pixels []byte, width, height int) (*image.RGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	row := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * row
		copy(img.Pix[y*img.Stride:y*img.Stride+row], pixels[src:src+row])
	}
	return img, nil
}

func (s *Screenshotter) save(img image.Image) (string, error) {
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	name := filepath.Join(s.dir, fmt.Sprintf("%s_%s.png", s.prefix, s.now().Format("2006-01-02_15-04-05.000")))
	file, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return name, nil
}
