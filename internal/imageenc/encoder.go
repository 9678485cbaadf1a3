package imageenc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"sync/atomic"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrReleased is returned when a buffer is released more than once.
var ErrReleased = errors.New("imageenc: buffer already released")

// Buffer holds a decoded image normalized to PNG, ready to hand to the
// engine. The owner must call Release exactly once on every exit path.
type Buffer struct {
	Data   []byte
	Width  int
	Height int
	Format string

	released atomic.Bool
}

// Release frees the buffer. The second and later calls return ErrReleased.
func (b *Buffer) Release() error {
	if b == nil {
		return nil
	}
	if !b.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	b.Data = nil
	return nil
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool {
	return b != nil && b.released.Load()
}

// Encoder decodes caller-supplied image bytes into an engine buffer.
// Supported formats are png, jpeg, gif, bmp, tiff, and webp.
type Encoder struct{}

// NewEncoder returns an encoder with all format decoders registered.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode validates and decodes raw image bytes into a Buffer. Non-PNG inputs
// are re-encoded so the engine sees a single format.
func (e *Encoder) Encode(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, errors.New("imageenc: empty image payload")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imageenc: decode image: %w", err)
	}

	bounds := img.Bounds()
	buf := &Buffer{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}

	if format == "png" {
		buf.Data = data
		return buf, nil
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("imageenc: re-encode %s image: %w", format, err)
	}
	buf.Data = out.Bytes()
	return buf, nil
}
