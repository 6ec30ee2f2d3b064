// Package raster provides the image buffer shared by the transform pipeline
// and its PNG boundary. The codec is a byte-format boundary only; all
// per-pixel work happens on the raw interleaved buffer.
package raster

import (
	"fmt"
	"image"
	"image/png"
	"io"
)

// Buffer is an interleaved 8-bit raster with 3 (RGB) or 4 (RGBA) channels
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed buffer of the given shape
func New(width, height, channels int) (*Buffer, error) {
	b := &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
	}
	if err := b.validateShape(); err != nil {
		return nil, err
	}
	b.Pix = make([]uint8, width*height*channels)
	return b, nil
}

// Validate checks the buffer shape and backing storage
func (b *Buffer) Validate() error {
	if err := b.validateShape(); err != nil {
		return err
	}
	if len(b.Pix) != b.Width*b.Height*b.Channels {
		return NewRasterError(ErrCodeInvalidImageFormat,
			fmt.Sprintf("pixel buffer has %d bytes, want %d",
				len(b.Pix), b.Width*b.Height*b.Channels), nil)
	}
	return nil
}

func (b *Buffer) validateShape() error {
	if b.Width <= 0 || b.Height <= 0 {
		return NewRasterError(ErrCodeInvalidImageFormat,
			fmt.Sprintf("non-positive dimensions %dx%d", b.Width, b.Height), nil)
	}
	if b.Channels != 3 && b.Channels != 4 {
		return NewRasterError(ErrCodeInvalidImageFormat,
			fmt.Sprintf("unsupported channel count %d", b.Channels), nil)
	}
	return nil
}

// Clone returns a deep copy sharing no storage with the receiver
func (b *Buffer) Clone() *Buffer {
	return &Buffer{
		Width:    b.Width,
		Height:   b.Height,
		Channels: b.Channels,
		Pix:      append([]uint8(nil), b.Pix...),
	}
}

// Offset returns the index of the first channel of pixel (x, y)
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * b.Channels
}

// DecodePNG reads a PNG stream into a 4-channel buffer
func DecodePNG(r io.Reader) (*Buffer, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, NewRasterError(ErrCodeDecoding, "failed to decode PNG", err)
	}

	bounds := img.Bounds()
	buf, err := New(bounds.Dx(), bounds.Dy(), 4)
	if err != nil {
		return nil, err
	}

	nrgba := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			nrgba.Set(x, y, img.At(x, y))
		}
	}
	copy(buf.Pix, nrgba.Pix)
	return buf, nil
}

// EncodePNG writes the buffer as a PNG stream
func (b *Buffer) EncodePNG(w io.Writer) error {
	if err := b.Validate(); err != nil {
		return err
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	if b.Channels == 4 {
		copy(nrgba.Pix, b.Pix)
	} else {
		for i := 0; i < b.Width*b.Height; i++ {
			nrgba.Pix[i*4+0] = b.Pix[i*3+0]
			nrgba.Pix[i*4+1] = b.Pix[i*3+1]
			nrgba.Pix[i*4+2] = b.Pix[i*3+2]
			nrgba.Pix[i*4+3] = 0xff
		}
	}

	if err := png.Encode(w, nrgba); err != nil {
		return NewRasterError(ErrCodeEncoding, "failed to encode PNG", err)
	}
	return nil
}
