// Package codec decodes raster images into RGBA8 pixel buffers and encodes
// those buffers as WebP.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// bytesPerPixel is fixed by the RGBA8 layout.
const bytesPerPixel = 4

var (
	// ErrEmptyImage is returned when a decoded image has no pixels.
	ErrEmptyImage = errors.New("image has zero width or height")

	// ErrInvalidBuffer is returned when a PixelBuffer's length does not match its dimensions.
	ErrInvalidBuffer = errors.New("pixel buffer length does not match dimensions")
)

// PixelBuffer is a decoded image in straight (non-premultiplied) RGBA8 order.
// len(Pix) is always Width*Height*4 for a valid buffer.
type PixelBuffer struct {
	Width  uint32
	Height uint32
	Pix    []byte
}

// Validate checks that the buffer is non-empty and that Pix has the expected length.
func (b *PixelBuffer) Validate() error {
	if b == nil || b.Width == 0 || b.Height == 0 {
		return ErrEmptyImage
	}
	want := uint64(b.Width) * uint64(b.Height) * bytesPerPixel
	if uint64(len(b.Pix)) != want {
		return fmt.Errorf("%w: have %d bytes, want %d for %dx%d", ErrInvalidBuffer, len(b.Pix), want, b.Width, b.Height)
	}
	return nil
}

// rgba exposes the buffer as an *image.RGBA without copying. The bytes stay
// straight-alpha: libwebp's RGBA import expects exactly that layout.
func (b *PixelBuffer) rgba() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: int(b.Width) * bytesPerPixel,
		Rect:   image.Rect(0, 0, int(b.Width), int(b.Height)),
	}
}

// Codec is the black-box image capability used by the converter.
// Implementations must be safe for concurrent use; every call owns its buffers.
type Codec interface {
	// Decode reads any supported raster format and returns its RGBA8 pixels.
	Decode(r io.Reader) (*PixelBuffer, error)
	// Encode produces WebP bytes. quality (0-100) is ignored when lossless is true.
	Encode(buf *PixelBuffer, quality float32, lossless bool) ([]byte, error)
}

// WebPCodec decodes PNG, JPEG, GIF, BMP and TIFF through imaging and encodes
// with libwebp through chai2010/webp.
type WebPCodec struct{}

// New returns the default codec.
func New() *WebPCodec {
	return &WebPCodec{}
}

// Decode implements Codec. Only the first frame of an animated GIF is used.
func (c *WebPCodec) Decode(r io.Reader) (*PixelBuffer, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, err
	}
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, ErrEmptyImage
	}
	buf := &PixelBuffer{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Pix:    nrgba.Pix,
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	return buf, nil
}

// Encode implements Codec.
func (c *WebPCodec) Encode(buf *PixelBuffer, quality float32, lossless bool) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	opts := &webp.Options{Lossless: lossless, Quality: quality}
	if err := webp.Encode(&out, buf.rgba(), opts); err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return nil, errors.New("encoder produced no output")
	}
	return out.Bytes(), nil
}
