package codec_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/webp-converter/internal/testutil"
	"github.com/stackvity/webp-converter/pkg/converter/codec"
)

func TestWebPCodec_DecodeSupportedFormats(t *testing.T) {
	dir := t.TempDir()
	c := codec.New()

	for _, name := range []string{"a.png", "b.jpg", "c.jpeg", "d.gif", "e.bmp", "f.tiff"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			testutil.WriteImage(t, path, testutil.NewTestImage(12, 7))

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			buf, err := c.Decode(f)
			require.NoError(t, err)
			assert.Equal(t, uint32(12), buf.Width)
			assert.Equal(t, uint32(7), buf.Height)
			assert.Len(t, buf.Pix, 12*7*4)
			assert.NoError(t, buf.Validate())
		})
	}
}

func TestWebPCodec_DecodeRejectsGarbage(t *testing.T) {
	c := codec.New()
	buf, err := c.Decode(strings.NewReader("this is not an image"))
	assert.Error(t, err)
	assert.Nil(t, buf)
}

func TestWebPCodec_LosslessRoundTripPreservesPixels(t *testing.T) {
	src := testutil.NewTestImage(9, 5)
	c := codec.New()

	var png bytes.Buffer
	require.NoError(t, imaging.Encode(&png, src, imaging.PNG))
	buf, err := c.Decode(&png)
	require.NoError(t, err)

	data, err := c.Encode(buf, 0, true)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := webp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), decoded.Bounds())
	assert.Equal(t, src.Pix, imaging.Clone(decoded).Pix, "lossless output must reproduce opaque pixels exactly")
}

func TestWebPCodec_LossyEncodeKeepsDimensions(t *testing.T) {
	c := codec.New()
	img := testutil.NewTestImage(16, 10)
	buf := &codec.PixelBuffer{Width: 16, Height: 10, Pix: img.Pix}

	for _, q := range []float32{0, 50, 87, 100} {
		data, err := c.Encode(buf, q, false)
		require.NoError(t, err, "quality %v", q)

		w, h, _, err := webp.GetInfo(data)
		require.NoError(t, err)
		assert.Equal(t, 16, w)
		assert.Equal(t, 10, h)
	}
}

func TestWebPCodec_EncodeRejectsInvalidBuffers(t *testing.T) {
	c := codec.New()

	_, err := c.Encode(&codec.PixelBuffer{Width: 0, Height: 3}, 80, false)
	assert.ErrorIs(t, err, codec.ErrEmptyImage)

	_, err = c.Encode(&codec.PixelBuffer{Width: 2, Height: 2, Pix: make([]byte, 15)}, 80, false)
	assert.ErrorIs(t, err, codec.ErrInvalidBuffer)

	_, err = c.Encode(nil, 80, false)
	assert.ErrorIs(t, err, codec.ErrEmptyImage)
}

func TestPixelBuffer_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		buf     *codec.PixelBuffer
		wantErr error
	}{
		{"Valid", &codec.PixelBuffer{Width: 2, Height: 3, Pix: make([]byte, 24)}, nil},
		{"ZeroWidth", &codec.PixelBuffer{Width: 0, Height: 3}, codec.ErrEmptyImage},
		{"ZeroHeight", &codec.PixelBuffer{Width: 3, Height: 0}, codec.ErrEmptyImage},
		{"ShortPix", &codec.PixelBuffer{Width: 2, Height: 3, Pix: make([]byte, 23)}, codec.ErrInvalidBuffer},
		{"LongPix", &codec.PixelBuffer{Width: 2, Height: 3, Pix: make([]byte, 25)}, codec.ErrInvalidBuffer},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.buf.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}
