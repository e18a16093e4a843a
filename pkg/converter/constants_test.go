package converter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stackvity/webp-converter/pkg/converter"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, float32(87), converter.DefaultQuality)
	assert.False(t, converter.DefaultLossless)
	assert.Equal(t, 0, converter.DefaultConcurrency)
	assert.Equal(t, converter.OutputFormatText, converter.DefaultOutputFormat)
	assert.Equal(t, ".webp", converter.WebPExtension)
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{"bmp", "gif", "jpeg", "jpg", "png", "tiff"}, converter.SupportedExtensions())
}
