// Package media loads texture sources off the render thread: still images
// delivered once, and looping animated frames exposed as a video.
package media

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/gltour/internal/logger"
)

// Result is the outcome of an asynchronous image load.
type Result struct {
	Image *image.RGBA
	Err   error
}

// LoadImage fetches and decodes src in a goroutine. The returned channel
// receives exactly one Result and is then closed.
func LoadImage(ctx context.Context, src string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		img, err := loadImage(ctx, src)
		if err != nil {
			out <- Result{Err: fmt.Errorf("loading image %s: %w", src, err)}
			return
		}
		logger.Named("media").Debug("image loaded")
		out <- Result{Image: img}
	}()
	return out
}

func loadImage(ctx context.Context, src string) (*image.RGBA, error) {
	rc, err := open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Decode(src, rc)
}

// Decode decodes r into RGBA. name is only used to pick the TGA decoder,
// every other format is sniffed from its header.
func Decode(name string, r io.Reader) (*image.RGBA, error) {
	if strings.EqualFold(path.Ext(name), ".tga") {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return DecodeTGA(data)
	}
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return ToRGBA(img), nil
}

// ToRGBA returns img as a zero-origin *image.RGBA, copying only when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// open resolves src as an http(s) URL, a file URL or a plain path.
func open(ctx context.Context, src string) (io.ReadCloser, error) {
	u, err := url.Parse(src)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return fetch(ctx, src)
		case "file":
			return os.Open(u.Path)
		}
	}
	return os.Open(src)
}

func fetch(ctx context.Context, src string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}
