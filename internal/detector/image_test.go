package detector

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestPNG writes a solid color PNG of the given size and returns its path.
func writeTestPNG(t *testing.T, dir, name string, w, h int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "a.png", 8, 6, color.RGBA{200, 100, 50, 255})

	img, err := loadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())
}

func TestLoadImageFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := loadImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err, "a missing file is a failure, not an empty result")

	garbage := filepath.Join(dir, "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	_, err = loadImage(garbage)
	assert.Error(t, err, "an undecodable file is a failure, not an empty result")
}

func TestLetterboxWideImage(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	boxed, tf := letterbox(src, 100)

	assert.Equal(t, 100, boxed.Bounds().Dx())
	assert.Equal(t, 100, boxed.Bounds().Dy())
	assert.InDelta(t, 0.5, tf.scale, 1e-6)
	assert.InDelta(t, 0, tf.padX, 1e-6)
	assert.InDelta(t, 25, tf.padY, 1e-6)
}

func TestTransformRoundTrip(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	_, tf := letterbox(src, 100)

	// A box in letterbox space maps back into original pixel space.
	det := tf.toOriginal(Detection{X1: 10, Y1: 35, X2: 60, Y2: 65, Confidence: 0.9, Class: 0})
	assert.InDelta(t, 20, det.X1, 1e-4)
	assert.InDelta(t, 20, det.Y1, 1e-4)
	assert.InDelta(t, 120, det.X2, 1e-4)
	assert.InDelta(t, 80, det.Y2, 1e-4)
}

func TestTransformClampsToBounds(t *testing.T) {
	t.Parallel()

	tf := transform{scale: 1, padX: 0, padY: 0, srcW: 100, srcH: 100}
	det := tf.toOriginal(Detection{X1: -5, Y1: -5, X2: 150, Y2: 150})
	assert.InDelta(t, 0, det.X1, 1e-6)
	assert.InDelta(t, 0, det.Y1, 1e-6)
	assert.InDelta(t, 100, det.X2, 1e-6)
	assert.InDelta(t, 100, det.Y2, 1e-6)
}

func TestFillInputTensor(t *testing.T) {
	t.Parallel()

	const size = 4
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	img.Set(0, 0, color.RGBA{255, 0, 128, 255})

	buf := make([]float32, size*size*3)
	fillInputTensor(img, buf, size)

	assert.InDelta(t, 1.0, buf[0], 1e-6)
	assert.InDelta(t, 0.0, buf[1], 1e-6)
	assert.InDelta(t, 128.0/255.0, buf[2], 1e-6)
}
