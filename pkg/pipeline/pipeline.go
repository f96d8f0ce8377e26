package pipeline

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-imgchain/pkg/imaging"
	"github.com/askiada/go-imgchain/pkg/pipeline/model"
)

// Pipeline is a chain of stages run in series.
type Pipeline struct {
	logger          *zap.Logger
	progress        model.ProgressFunc
	stages          []model.PipelineStage
	observers       observers
	tileConcurrency int
	strictScale     bool

	debugMu sync.Mutex
}

// New creates a new pipeline running stages in order.
func New(stages []model.PipelineStage, opts ...Option) (*Pipeline, error) {
	pipe := &Pipeline{
		logger: zap.NewNop(),
		stages: append([]model.PipelineStage(nil), stages...),
	}
	for _, opt := range opts {
		opt(pipe)
	}

	err := pipe.observers.each("apply pipeline option", func(obs model.PipelineOption) error {
		return obs.New()
	})
	if err != nil {
		return nil, err
	}

	return pipe, nil
}

// Append adds stage at the end of the chain.
func (p *Pipeline) Append(stage model.PipelineStage) {
	p.stages = append(p.stages, stage)
}

// Stages returns a copy of the chain.
func (p *Pipeline) Stages() []model.PipelineStage {
	return append([]model.PipelineStage(nil), p.stages...)
}

// Validate checks the parameters of every stage.
func (p *Pipeline) Validate() error {
	for i, st := range p.stages {
		err := st.Params.Validate()
		if err != nil {
			return errors.Wrapf(err, "stage %d (%s)", i, st.DisplayName())
		}
		if st.Stage == nil {
			return errors.Wrapf(model.ErrInvalidStageParams, "stage %d (%s) has no implementation", i, st.DisplayName())
		}
	}

	return nil
}

// Describe walks the chain without running it, so observers such as the drawer can render it.
func (p *Pipeline) Describe() error {
	err := p.Validate()
	if err != nil {
		return err
	}

	parent := model.StartStage
	for i, st := range p.stages {
		info := stageInfo(i, st)

		err := p.observers.each("prepare stage", func(obs model.PipelineOption) error {
			return obs.PrepareStage(parent, info)
		})
		if err != nil {
			return err
		}
		parent = info
	}

	return p.finishRun(parent)
}

// Run passes source through every stage and returns the image produced by the last one.
// server and params may be nil, in which case zero values are used.
func (p *Pipeline) Run(ctx context.Context, server *model.ServerContext, params *model.ImageParams, source image.Image) (image.Image, error) {
	if source == nil {
		return nil, ErrSourceMustBeSet
	}

	err := p.Validate()
	if err != nil {
		return nil, err
	}

	if server == nil {
		server = &model.ServerContext{}
	}
	if params == nil {
		params = &model.ImageParams{}
	}

	r := &run{
		Pipeline: p,
		id:       uuid.NewString(),
		server:   server,
		params:   params,
	}
	r.logger = p.logger.With(zap.String("run_id", r.id))

	return r.run(ctx, source)
}

func (p *Pipeline) finishRun(last *model.StageInfo) error {
	err := p.observers.each("prepare end stage", func(obs model.PipelineOption) error {
		return obs.PrepareStage(last, model.EndStage)
	})
	if err != nil {
		return err
	}

	return p.observers.each("finish pipeline option", func(obs model.PipelineOption) error {
		return obs.Finish()
	})
}

// run holds the state of a single call to Run.
type run struct {
	*Pipeline
	logger *zap.Logger
	server *model.ServerContext
	params *model.ImageParams
	id     string
}

func (r *run) run(ctx context.Context, source image.Image) (image.Image, error) {
	start := time.Now()
	size := imaging.SizeOf(source)

	r.logger.Info("running pipeline on source image",
		zap.Int("width", size.Width),
		zap.Int("height", size.Height),
		zap.Int("stages", len(r.stages)),
	)
	r.report(model.Progress{Event: model.PipelineStartEvent, StageIndex: -1, Width: size.Width, Height: size.Height})

	img := source
	parent := model.StartStage

	for i, st := range r.stages {
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "before stage %d (%s)", i, st.DisplayName())
		default:
		}

		info := stageInfo(i, st)

		out, err := r.runStage(ctx, parent, info, st, img)
		if err != nil {
			return nil, errors.Wrapf(err, "stage %s", info.Name)
		}

		img = out
		parent = info
	}

	err := r.finishRun(parent)
	if err != nil {
		return nil, err
	}

	size = imaging.SizeOf(img)
	r.logger.Info("finished running pipeline",
		zap.Int("width", size.Width),
		zap.Int("height", size.Height),
		zap.Duration("elapsed", time.Since(start)),
	)
	r.report(model.Progress{Event: model.PipelineEndEvent, StageIndex: -1, Width: size.Width, Height: size.Height})

	return img, nil
}

func (r *run) report(progress model.Progress) {
	if r.progress == nil {
		return
	}
	progress.RunID = r.id
	progress.StageTotal = len(r.stages)
	r.progress(progress)
}

func stageInfo(index int, st model.PipelineStage) *model.StageInfo {
	return &model.StageInfo{
		Name:     st.DisplayName(),
		Index:    index,
		TileSize: st.Params.TileSize,
		Outscale: st.Params.Outscale,
	}
}
