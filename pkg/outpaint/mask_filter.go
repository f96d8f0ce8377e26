package outpaint

import (
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-imgchain/pkg/imaging"
)

// MaskFilter builds the full-canvas blending mask from the mask given to a stage.
type MaskFilter string

const (
	// MaskFilterNone pastes the mask on a canvas of the fill colour.
	MaskFilterNone MaskFilter = "none"
	// MaskFilterGaussianMultiply darkens the pasted mask edges with blurred copies of itself.
	MaskFilterGaussianMultiply MaskFilter = "gaussian-multiply"
	// MaskFilterGaussianScreen lightens the pasted mask edges with blurred copies of itself.
	MaskFilterGaussianScreen MaskFilter = "gaussian-screen"
)

type maskFilterFn func(mask image.Image, dims imaging.Size, origin image.Point, cfg *config) (*image.NRGBA, error)

var maskFilters = map[MaskFilter]maskFilterFn{
	MaskFilterNone:             maskFilterNone,
	MaskFilterGaussianMultiply: gaussianMaskFilter(imaging.Multiply),
	MaskFilterGaussianScreen:   gaussianMaskFilter(imaging.Screen),
}

// MaskFilters lists every mask filter.
func MaskFilters() []MaskFilter {
	out := make([]MaskFilter, 0, len(maskFilters))
	for name := range maskFilters {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// ParseMaskFilter returns the mask filter called name.
func ParseMaskFilter(name string) (MaskFilter, error) {
	filter := MaskFilter(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := maskFilters[filter]; !ok {
		return "", errors.Wrapf(ErrUnknownStrategy, "mask filter %q", name)
	}

	return filter, nil
}

// Apply builds a dims sized mask with mask pasted at origin.
func (m MaskFilter) Apply(mask image.Image, dims imaging.Size, origin image.Point, opts ...Option) (*image.NRGBA, error) {
	return m.apply(mask, dims, origin, newConfig(opts...))
}

func (m MaskFilter) apply(mask image.Image, dims imaging.Size, origin image.Point, cfg *config) (*image.NRGBA, error) {
	fn, ok := maskFilters[m]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStrategy, "mask filter %q", string(m))
	}
	if mask == nil {
		return nil, ErrMaskMustBeSet
	}

	return fn(mask, dims, origin, cfg)
}

func maskFilterNone(mask image.Image, dims imaging.Size, origin image.Point, cfg *config) (*image.NRGBA, error) {
	canvas := imaging.NewRGBCanvas(dims, cfg.fill)
	imaging.PasteRGB(canvas, mask, origin)

	return canvas, nil
}

// gaussianMaskFilter always starts from a white canvas, whatever the fill colour.
func gaussianMaskFilter(combine func(a, b image.Image) (*image.NRGBA, error)) maskFilterFn {
	return func(mask image.Image, dims imaging.Size, origin image.Point, cfg *config) (*image.NRGBA, error) {
		noise := imaging.NewRGBCanvas(dims, color.White)
		imaging.PasteRGB(noise, mask, origin)

		for i := 0; i < cfg.rounds; i++ {
			blur := imaging.GaussianBlur(noise, blurRadius)

			out, err := combine(noise, blur)
			if err != nil {
				return nil, errors.Wrapf(err, "round %d", i)
			}
			noise = out
		}

		return noise, nil
	}
}
