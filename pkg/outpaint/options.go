package outpaint

import (
	"image/color"
	"math/rand/v2"
	"time"
)

const (
	defaultRounds = 3
	blurRadius    = 5
)

type config struct {
	fill        color.NRGBA
	rounds      int
	rng         *rand.Rand
	noiseSource NoiseSource
	maskFilter  MaskFilter
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		fill:        color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		rounds:      defaultRounds,
		noiseSource: NoiseSourceHistogram,
		maskFilter:  MaskFilterNone,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.rng == nil {
		seed := uint64(time.Now().UnixNano())
		cfg.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	return cfg
}

type Option func(c *config)

// WithFill sets the colour of the background canvases. It defaults to white.
func WithFill(fill color.Color) Option {
	return func(c *config) {
		nrgba := color.NRGBAModel.Convert(fill).(color.NRGBA)
		nrgba.A = 0xff
		c.fill = nrgba
	}
}

// WithRounds sets how many blur passes the Gaussian strategies run. It defaults to 3.
func WithRounds(rounds int) Option {
	return func(c *config) {
		if rounds >= 0 {
			c.rounds = rounds
		}
	}
}

// WithSeed makes the random strategies deterministic.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	}
}

// WithRand sets the random source used by the random strategies.
func WithRand(rng *rand.Rand) Option {
	return func(c *config) {
		c.rng = rng
	}
}

// WithNoiseSource selects the strategy filling the expanded region. It defaults to histogram.
func WithNoiseSource(source NoiseSource) Option {
	return func(c *config) {
		c.noiseSource = source
	}
}

// WithMaskFilter selects the strategy building the blending mask. It defaults to none.
func WithMaskFilter(filter MaskFilter) Option {
	return func(c *config) {
		c.maskFilter = filter
	}
}
