package media

import (
	"errors"
	"fmt"
	"image"
)

// TGA image types this decoder understands.
const (
	TGATypeUncompressed = 2  // uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const tgaHeaderSize = 18

// maxTGASide bounds RLE images, whose size cannot be checked against the
// stream length before decoding.
const maxTGASide = 16384

var errTGATruncated = errors.New("tga: pixel data truncated")

// DecodeTGA decodes an uncompressed or RLE true-color TGA image with
// 24 or 32 bits per pixel. TGA has no magic number, so it cannot be
// registered with image.RegisterFormat; callers pick it by extension.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("tga: header too short (%d bytes)", len(data))
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, errors.New("tga: color-mapped images not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("tga: unsupported image type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("tga: unsupported bit depth %d", bpp)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("tga: empty image %dx%d", width, height)
	}
	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}
	stride := bpp / 8
	if imageType == TGATypeUncompressed && len(data)-offset < width*height*stride {
		return nil, errTGATruncated
	}
	if imageType == TGATypeRLE && (width > maxTGASide || height > maxTGASide) {
		return nil, fmt.Errorf("tga: image %dx%d exceeds %d pixels per side", width, height, maxTGASide)
	}

	d := &tgaDecoder{
		src:         data[offset:],
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		width:       width,
		height:      height,
		stride:      stride,
		topToBottom: topToBottom,
	}
	var err error
	if imageType == TGATypeUncompressed {
		err = d.raw()
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	src           []byte
	pos           int
	img           *image.RGBA
	width, height int
	stride        int
	topToBottom   bool
	pixel         int // next destination pixel in file order
}

// next reads one BGR(A) pixel from the source.
func (d *tgaDecoder) next() ([4]byte, error) {
	if d.pos+d.stride > len(d.src) {
		return [4]byte{}, errTGATruncated
	}
	p := d.src[d.pos : d.pos+d.stride]
	d.pos += d.stride
	c := [4]byte{p[2], p[1], p[0], 255}
	if d.stride == 4 {
		c[3] = p[3]
	}
	return c, nil
}

// put writes c at the next pixel, flipping rows for bottom-up files.
func (d *tgaDecoder) put(c [4]byte) {
	x, y := d.pixel%d.width, d.pixel/d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	i := d.img.PixOffset(x, y)
	copy(d.img.Pix[i:i+4], c[:])
	d.pixel++
}

func (d *tgaDecoder) total() int {
	return d.width * d.height
}

func (d *tgaDecoder) raw() error {
	for d.pixel < d.total() {
		c, err := d.next()
		if err != nil {
			return err
		}
		d.put(c)
	}
	return nil
}

// rle decodes run-length packets. A short stream leaves the remaining
// pixels transparent rather than failing.
func (d *tgaDecoder) rle() error {
	for d.pixel < d.total() && d.pos < len(d.src) {
		header := d.src[d.pos]
		d.pos++
		count := int(header&0x7F) + 1

		if header&0x80 != 0 {
			c, err := d.next()
			if err != nil {
				return nil
			}
			for i := 0; i < count && d.pixel < d.total(); i++ {
				d.put(c)
			}
			continue
		}
		for i := 0; i < count && d.pixel < d.total(); i++ {
			c, err := d.next()
			if err != nil {
				return nil
			}
			d.put(c)
		}
	}
	return nil
}
