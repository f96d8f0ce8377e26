package imaging_test

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-imgchain/pkg/imaging"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8(x + y), A: 0xff})
		}
	}

	return img
}

func TestNewCanvas(t *testing.T) {
	t.Parallel()

	canvas := imaging.NewCanvas(imaging.Size{Width: 3, Height: 2}, color.White)
	assert.Equal(t, image.Rect(0, 0, 3, 2), canvas.Bounds())
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, canvas.NRGBAAt(2, 1))

	rgb := imaging.NewRGBCanvas(imaging.Size{Width: 1, Height: 1}, color.Transparent)
	assert.Equal(t, color.NRGBA{A: 0xff}, rgb.NRGBAAt(0, 0))
}

func TestCropPasteRoundTrip(t *testing.T) {
	t.Parallel()

	src := gradient(8, 6)
	canvas := imaging.NewCanvas(imaging.SizeOf(src), color.Black)

	for _, rect := range []image.Rectangle{
		image.Rect(0, 0, 4, 3), image.Rect(4, 0, 8, 3),
		image.Rect(0, 3, 4, 6), image.Rect(4, 3, 8, 6),
	} {
		part := imaging.Crop(src, rect)
		assert.Equal(t, image.Rect(0, 0, 4, 3), part.Bounds())
		imaging.Paste(canvas, part, rect.Min)
	}

	assert.True(t, imaging.Equal(src, canvas))
}

func TestPasteRGBDropsAlpha(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0x80})
	canvas := imaging.NewRGBCanvas(imaging.Size{Width: 2, Height: 2}, color.White)

	imaging.PasteRGB(canvas, src, image.Pt(1, 1))
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 0xff}, canvas.NRGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, canvas.NRGBAAt(0, 0))
}

func TestGaussianBlur(t *testing.T) {
	t.Parallel()

	kernel := imaging.GaussianKernel(5)
	sum := float32(0)
	for _, v := range kernel {
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-4)
	assert.Len(t, kernel, 31)
	assert.Equal(t, []float32{1}, imaging.GaussianKernel(0))

	flat := imaging.NewRGBCanvas(imaging.Size{Width: 12, Height: 9}, color.NRGBA{R: 40, G: 80, B: 120, A: 0xff})
	assert.True(t, imaging.Equal(flat, imaging.GaussianBlur(flat, 5)))

	src := imaging.NewRGBCanvas(imaging.Size{Width: 9, Height: 9}, color.Black)
	src.SetNRGBA(4, 4, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	blurred := imaging.GaussianBlur(src, 1)
	assert.Less(t, blurred.NRGBAAt(4, 4).R, uint8(0xff))
	assert.Greater(t, blurred.NRGBAAt(5, 4).R, uint8(0))
}

func TestMultiplyScreen(t *testing.T) {
	t.Parallel()

	src := gradient(5, 5)
	white := imaging.NewRGBCanvas(imaging.SizeOf(src), color.White)
	black := imaging.NewRGBCanvas(imaging.SizeOf(src), color.Black)

	got, err := imaging.Multiply(src, white)
	require.NoError(t, err)
	assert.True(t, imaging.Equal(src, got))

	got, err = imaging.Multiply(src, black)
	require.NoError(t, err)
	assert.True(t, imaging.Equal(black, got))

	got, err = imaging.Screen(src, black)
	require.NoError(t, err)
	assert.True(t, imaging.Equal(src, got))

	got, err = imaging.Screen(src, white)
	require.NoError(t, err)
	assert.True(t, imaging.Equal(white, got))

	_, err = imaging.Multiply(src, gradient(2, 2))
	assert.ErrorIs(t, err, imaging.ErrSizeMismatch)
}

func TestComposite(t *testing.T) {
	t.Parallel()

	fg := imaging.NewRGBCanvas(imaging.Size{Width: 2, Height: 1}, color.White)
	bg := imaging.NewRGBCanvas(imaging.Size{Width: 2, Height: 1}, color.Black)
	mask := image.NewGray(image.Rect(0, 0, 2, 1))
	mask.SetGray(1, 0, color.Gray{Y: 0xff})

	got, err := imaging.Composite(fg, bg, mask)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{A: 0xff}, got.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, got.NRGBAAt(1, 0))

	mask.SetGray(0, 0, color.Gray{Y: 0x80})
	got, err = imaging.Composite(fg, bg, mask)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x80), got.NRGBAAt(0, 0).R)

	_, err = imaging.Composite(fg, bg, image.NewGray(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, imaging.ErrSizeMismatch)
}

func TestLuminance(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	img.SetNRGBA(1, 0, color.NRGBA{A: 0xff})
	img.SetNRGBA(2, 0, color.NRGBA{R: 0xff, A: 0xff})

	gray := imaging.Luminance(img)
	assert.Equal(t, uint8(0xff), gray.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), gray.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(76), gray.GrayAt(2, 0).Y)
}

func TestHistogram(t *testing.T) {
	t.Parallel()

	img := imaging.NewRGBCanvas(imaging.Size{Width: 4, Height: 2}, color.NRGBA{R: 1, G: 2, B: 3, A: 0xff})
	hist := imaging.NewHistogram(img)

	assert.Equal(t, uint64(8), hist[0][1])
	assert.Equal(t, uint64(8), hist[1][2])
	assert.Equal(t, uint64(8), hist[2][3])
	assert.Equal(t, uint64(8), hist.Total(0))
}

func TestParseColor(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in       string
		expected color.NRGBA
		err      bool
	}{
		"named":      {in: "White", expected: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		"hex":        {in: "#ff0000", expected: color.NRGBA{R: 0xff, A: 0xff}},
		"rgb":        {in: "rgb(1,2,3)", expected: color.NRGBA{R: 1, G: 2, B: 3, A: 0xff}},
		"bad colour": {in: "not a colour", err: true},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := imaging.ParseColor(tc.in)
			if tc.err {
				assert.ErrorIs(t, err, imaging.ErrBadColor)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	src := gradient(6, 4)
	path := filepath.Join(t.TempDir(), "nested", "img.png")

	require.NoError(t, imaging.Save(path, src))
	got, err := imaging.Load(path)
	require.NoError(t, err)
	assert.True(t, imaging.Equal(src, got))

	_, err = imaging.Load("")
	assert.ErrorIs(t, err, imaging.ErrEmptyPath)
}
