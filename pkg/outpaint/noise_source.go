package outpaint

import (
	"image"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-imgchain/pkg/imaging"
)

// NoiseSource produces the synthetic content of the expanded canvas.
type NoiseSource string

const (
	// NoiseSourceFillEdge pastes the source on a canvas of the fill colour, no noise.
	NoiseSourceFillEdge NoiseSource = "fill-edge"
	// NoiseSourceFillMask fills the whole canvas with the fill colour.
	NoiseSourceFillMask NoiseSource = "fill-mask"
	// NoiseSourceUniform draws every channel uniformly from [0, 255].
	NoiseSourceUniform NoiseSource = "uniform"
	// NoiseSourceNormal draws every channel from N(128, 32).
	NoiseSourceNormal NoiseSource = "normal"
	// NoiseSourceHistogram draws every channel from the source channel histogram.
	NoiseSourceHistogram NoiseSource = "histogram"
	// NoiseSourceGaussian blurs uniform noise with the source pasted on top.
	NoiseSourceGaussian NoiseSource = "gaussian"
)

const (
	normalMean   = 128
	normalStdDev = 32
)

type noiseSourceFn func(source image.Image, dims imaging.Size, origin image.Point, cfg *config) (*image.NRGBA, error)

var noiseSources = map[NoiseSource]noiseSourceFn{
	NoiseSourceFillEdge:  noiseSourceFillEdge,
	NoiseSourceFillMask:  noiseSourceFillMask,
	NoiseSourceUniform:   noiseSourceUniform,
	NoiseSourceNormal:    noiseSourceNormal,
	NoiseSourceHistogram: noiseSourceHistogram,
	NoiseSourceGaussian:  noiseSourceGaussian,
}

// NoiseSources lists every noise source.
func NoiseSources() []NoiseSource {
	out := make([]NoiseSource, 0, len(noiseSources))
	for name := range noiseSources {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// ParseNoiseSource returns the noise source called name.
func ParseNoiseSource(name string) (NoiseSource, error) {
	source := NoiseSource(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := noiseSources[source]; !ok {
		return "", errors.Wrapf(ErrUnknownStrategy, "noise source %q", name)
	}

	return source, nil
}

// Generate produces a dims sized canvas of synthetic content for source placed at origin.
func (n NoiseSource) Generate(source image.Image, dims imaging.Size, origin image.Point, opts ...Option) (*image.NRGBA, error) {
	return n.generate(source, dims, origin, newConfig(opts...))
}

func (n NoiseSource) generate(source image.Image, dims imaging.Size, origin image.Point, cfg *config) (*image.NRGBA, error) {
	fn, ok := noiseSources[n]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStrategy, "noise source %q", string(n))
	}
	if source == nil {
		return nil, ErrSourceMustBeSet
	}

	return fn(source, dims, origin, cfg)
}

func noiseSourceFillEdge(source image.Image, dims imaging.Size, origin image.Point, cfg *config) (*image.NRGBA, error) {
	canvas := imaging.NewRGBCanvas(dims, cfg.fill)
	imaging.PasteRGB(canvas, source, origin)

	return canvas, nil
}

func noiseSourceFillMask(_ image.Image, dims imaging.Size, _ image.Point, cfg *config) (*image.NRGBA, error) {
	return imaging.NewRGBCanvas(dims, cfg.fill), nil
}

func noiseSourceUniform(_ image.Image, dims imaging.Size, _ image.Point, cfg *config) (*image.NRGBA, error) {
	return fillChannels(dims, func(int) uint8 {
		return uint8(cfg.rng.IntN(256))
	}), nil
}

func noiseSourceNormal(_ image.Image, dims imaging.Size, _ image.Point, cfg *config) (*image.NRGBA, error) {
	return fillChannels(dims, func(int) uint8 {
		v := cfg.rng.NormFloat64()*normalStdDev + normalMean

		return uint8(math.Max(0, math.Min(255, v)))
	}), nil
}

func noiseSourceHistogram(source image.Image, dims imaging.Size, _ image.Point, cfg *config) (*image.NRGBA, error) {
	hist := imaging.NewHistogram(source)

	var cumulative [3][256]uint64
	for c := range hist {
		total := uint64(0)
		for v, n := range hist[c] {
			total += n
			cumulative[c][v] = total
		}
		if total == 0 {
			return nil, errors.Wrap(imaging.ErrInvalidSize, "source image is empty")
		}
	}

	return fillChannels(dims, func(c int) uint8 {
		total := cumulative[c][255]
		pick := cfg.rng.Uint64N(total)
		v := sort.Search(256, func(i int) bool { return cumulative[c][i] > pick })

		return uint8(v)
	}), nil
}

func noiseSourceGaussian(source image.Image, dims imaging.Size, origin image.Point, cfg *config) (*image.NRGBA, error) {
	noise, err := noiseSourceUniform(source, dims, origin, cfg)
	if err != nil {
		return nil, err
	}
	imaging.PasteRGB(noise, source, origin)

	for i := 0; i < cfg.rounds; i++ {
		noise = imaging.GaussianBlur(noise, blurRadius)
	}

	return noise, nil
}

// fillChannels builds an opaque canvas whose red, green and blue samples come from sample,
// called with the channel index.
func fillChannels(dims imaging.Size, sample func(c int) uint8) *image.NRGBA {
	canvas := image.NewNRGBA(dims.Rect())
	for i := 0; i < len(canvas.Pix); i += 4 {
		canvas.Pix[i+0] = sample(0)
		canvas.Pix[i+1] = sample(1)
		canvas.Pix[i+2] = sample(2)
		canvas.Pix[i+3] = 0xff
	}

	return canvas
}
