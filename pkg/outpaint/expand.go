package outpaint

import (
	"image"

	"github.com/pkg/errors"

	"github.com/askiada/go-imgchain/pkg/imaging"
)

// Expansion is the result of ExpandImage. Every image has the size Size.
type Expansion struct {
	// Source is the original image on the grown canvas with the expanded region filled from Noise.
	Source *image.NRGBA
	// Mask is the full-canvas blending mask, for conditioning the generation.
	Mask *image.NRGBA
	// Noise is the synthetic layer, already multiplied by Mask.
	Noise *image.NRGBA
	Size  imaging.Size
}

// ExpandImage grows the canvas of source by border. The original image is pasted at
// (border.Left, border.Top), mask is turned into a full-canvas mask by the selected MaskFilter,
// the selected NoiseSource fills a noise canvas, the noise is multiplied by the mask and finally
// composited over the pasted source using the mask luminance as weight.
func ExpandImage(source, mask image.Image, border imaging.Border, opts ...Option) (*Expansion, error) {
	if source == nil {
		return nil, ErrSourceMustBeSet
	}
	if mask == nil {
		return nil, ErrMaskMustBeSet
	}
	if !border.Valid() {
		return nil, errors.Wrapf(ErrInvalidBorder, "%+v", border)
	}

	cfg := newConfig(opts...)
	dims := border.Expand(imaging.SizeOf(source))
	origin := border.Origin()

	fullSource := imaging.NewRGBCanvas(dims, cfg.fill)
	imaging.PasteRGB(fullSource, source, origin)

	fullMask, err := cfg.maskFilter.apply(mask, dims, origin, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to filter mask")
	}

	fullNoise, err := cfg.noiseSource.generate(source, dims, origin, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to generate noise")
	}

	fullNoise, err = imaging.Multiply(fullNoise, fullMask)
	if err != nil {
		return nil, errors.Wrap(err, "unable to apply mask to noise")
	}

	fullSource, err = imaging.Composite(fullNoise, fullSource, imaging.Luminance(fullMask))
	if err != nil {
		return nil, errors.Wrap(err, "unable to composite noise")
	}

	return &Expansion{
		Source: fullSource,
		Mask:   fullMask,
		Noise:  fullNoise,
		Size:   dims,
	}, nil
}
