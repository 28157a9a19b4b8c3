package media

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestSaveAirplaneImage(t *testing.T) {
	s := New(t.TempDir(), "/media", 1<<20)

	rel, err := s.SaveAirplaneImage("Boeing 737-800", bytes.NewReader(pngPixel))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "airplanes/boeing-737-800-"), rel)
	assert.True(t, strings.HasSuffix(rel, ".png"), rel)

	data, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, pngPixel, data)
	assert.Equal(t, "/media/"+rel, s.URL(rel))

	require.NoError(t, s.Remove(rel))
	require.NoError(t, s.Remove(rel))
}

func TestSaveAirplaneImageRejects(t *testing.T) {
	s := New(t.TempDir(), "/media/", 16)

	_, err := s.SaveAirplaneImage("x", strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = s.SaveAirplaneImage("x", bytes.NewReader(pngPixel))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = s.SaveAirplaneImage("x", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSlugifyAndURL(t *testing.T) {
	assert.Equal(t, "airbus-a320neo", Slugify("  Airbus A320neo!"))
	assert.Equal(t, "airplane", Slugify("***"))
	assert.Nil(t, New("m", "/media/", 0).URL(""))
}
