package imaging

import (
	"image"

	"github.com/pkg/errors"
)

// Multiply darkens a with b channel by channel: a*b/255. The result is opaque.
func Multiply(a, b image.Image) (*image.NRGBA, error) {
	return chop(a, b, func(x, y uint8) uint8 {
		return uint8(uint16(x) * uint16(y) / 255)
	})
}

// Screen lightens a with b channel by channel: 255 - (255-a)*(255-b)/255. The result is opaque.
func Screen(a, b image.Image) (*image.NRGBA, error) {
	return chop(a, b, func(x, y uint8) uint8 {
		return 255 - uint8(uint16(255-x)*uint16(255-y)/255)
	})
}

func chop(a, b image.Image, fn func(x, y uint8) uint8) (*image.NRGBA, error) {
	ca, cb := Clone(a), Clone(b)
	if ca.Rect.Size() != cb.Rect.Size() {
		return nil, errors.Wrapf(ErrSizeMismatch, "%v and %v", ca.Rect.Size(), cb.Rect.Size())
	}

	out := image.NewNRGBA(ca.Rect)
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i+0] = fn(ca.Pix[i+0], cb.Pix[i+0])
		out.Pix[i+1] = fn(ca.Pix[i+1], cb.Pix[i+1])
		out.Pix[i+2] = fn(ca.Pix[i+2], cb.Pix[i+2])
		out.Pix[i+3] = 0xff
	}

	return out, nil
}

// Composite blends fg over bg using mask as the per-pixel weight:
// 0 keeps bg, 255 takes fg and values in between mix both.
func Composite(fg, bg image.Image, mask *image.Gray) (*image.NRGBA, error) {
	cf, cbg := Clone(fg), Clone(bg)
	if cf.Rect.Size() != cbg.Rect.Size() {
		return nil, errors.Wrapf(ErrSizeMismatch, "foreground %v, background %v", cf.Rect.Size(), cbg.Rect.Size())
	}
	if mask.Rect.Size() != cf.Rect.Size() {
		return nil, errors.Wrapf(ErrSizeMismatch, "mask %v, image %v", mask.Rect.Size(), cf.Rect.Size())
	}

	out := image.NewNRGBA(cf.Rect)
	w, h := cf.Rect.Dx(), cf.Rect.Dy()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := uint32(mask.Pix[y*mask.Stride+x])
			i := y*out.Stride + x*4

			for c := 0; c < 4; c++ {
				out.Pix[i+c] = uint8((uint32(cf.Pix[i+c])*m + uint32(cbg.Pix[i+c])*(255-m) + 127) / 255)
			}
		}
	}

	return out, nil
}

// Luminance converts img to a single channel using the ITU-R 601-2 luma transform.
func Luminance(img image.Image) *image.Gray {
	src := Clone(img)
	out := image.NewGray(src.Rect)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*src.Stride + x*4
			r, g, b := uint32(src.Pix[i]), uint32(src.Pix[i+1]), uint32(src.Pix[i+2])
			out.Pix[y*out.Stride+x] = uint8((r*19595 + g*38470 + b*7471 + 0x8000) >> 16)
		}
	}

	return out
}
