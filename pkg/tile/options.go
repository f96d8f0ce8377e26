package tile

import (
	"time"

	"go.uber.org/zap"
)

type Option func(p *processor)

// WithConcurrency processes up to n tiles at the same time. Values below 2 keep the sequential
// row-major execution.
func WithConcurrency(n int) Option {
	return func(p *processor) {
		p.concurrent = n
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTileCallback is called once per finished tile with the time spent in the filter chain.
// Calls are serialised, even when tiles run concurrently.
func WithTileCallback(fn func(t Tile, elapsed time.Duration)) Option {
	return func(p *processor) {
		p.onTile = fn
	}
}

// WithStrictScale turns a filter result whose size is not tile size times scale into
// ErrScaleMismatch instead of a warning.
func WithStrictScale(strict bool) Option {
	return func(p *processor) {
		p.strict = strict
	}
}
