package pipeline

import (
	"go.uber.org/zap"

	"github.com/askiada/go-imgchain/pkg/pipeline/model"
)

type Option func(p *Pipeline)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTileConcurrency processes up to n tiles of a tiled stage at the same time.
func WithTileConcurrency(n int) Option {
	return func(p *Pipeline) {
		p.tileConcurrency = n
	}
}

// WithStrictScale fails a tiled stage whose tile results are not tile size times outscale.
func WithStrictScale(strict bool) Option {
	return func(p *Pipeline) {
		p.strictScale = strict
	}
}

// WithProgress reports the pipeline, stage and tile boundaries to fn.
func WithProgress(fn model.ProgressFunc) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// WithObserver registers an observer. Observers are notified in registration order.
func WithObserver(obs model.PipelineOption) Option {
	return func(p *Pipeline) {
		if obs != nil {
			p.observers = append(p.observers, obs)
		}
	}
}
