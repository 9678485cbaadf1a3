package imageenc

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImageBytes(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 6, 3))
	for x := 0; x < 6; x++ {
		img.Set(x, 1, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

func TestEncodePNGPassthrough(t *testing.T) {
	data := testImageBytes(t, func(b *bytes.Buffer, img image.Image) error {
		return png.Encode(b, img)
	})

	buf, err := NewEncoder().Encode(data)
	require.NoError(t, err)
	assert.Equal(t, 6, buf.Width)
	assert.Equal(t, 3, buf.Height)
	assert.Equal(t, "png", buf.Format)
	assert.Equal(t, data, buf.Data, "png input should not be re-encoded")
}

func TestEncodeJPEGNormalizesToPNG(t *testing.T) {
	data := testImageBytes(t, func(b *bytes.Buffer, img image.Image) error {
		return jpeg.Encode(b, img, nil)
	})

	buf, err := NewEncoder().Encode(data)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", buf.Format)

	decoded, format, err := image.Decode(bytes.NewReader(buf.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 6, decoded.Bounds().Dx())
}

func TestEncodeRejectsBadInput(t *testing.T) {
	enc := NewEncoder()

	_, err := enc.Encode(nil)
	assert.Error(t, err)

	_, err = enc.Encode([]byte("not an image"))
	assert.Error(t, err)
}

// TestReleaseExactlyOnce verifies the double-release guard.
func TestReleaseExactlyOnce(t *testing.T) {
	data := testImageBytes(t, func(b *bytes.Buffer, img image.Image) error {
		return png.Encode(b, img)
	})
	buf, err := NewEncoder().Encode(data)
	require.NoError(t, err)

	assert.False(t, buf.Released())
	require.NoError(t, buf.Release())
	assert.True(t, buf.Released())
	assert.ErrorIs(t, buf.Release(), ErrReleased)
}
