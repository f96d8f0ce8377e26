package stage

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-imgchain/pkg/loader"
	"github.com/askiada/go-imgchain/pkg/pipeline/model"
)

// UpscaleDiffusion enlarges the source with the diffusion upscaling model named in the upscale
// argument, prompted and seeded from the image parameters.
type UpscaleDiffusion struct {
	Logger  *zap.Logger
	Backend *Backend[DiffusionUpscaler]
}

func (UpscaleDiffusion) Name() string { return "upscale-diffusion" }

func (s UpscaleDiffusion) Run(ctx context.Context, server *model.ServerContext, _ *model.StageParams, params *model.ImageParams, source image.Image, kwargs model.Kwargs) (image.Image, error) {
	upscale, err := model.Arg[*UpscaleParams](kwargs, model.KeyUpscale)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = &model.ImageParams{}
	}

	key := loader.Key{Model: server.ModelFile(upscale.Model), Format: upscale.format(), Options: upscale.Provider}
	orNop(s.Logger).Info("upscaling with diffusion model", zap.Stringer("model", key), zap.Int64("seed", params.Seed))

	upscaler, err := s.Backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	modelReady(kwargs, source)

	out, err := upscaler.Upscale(ctx, params.Prompt, source, params.Seed, params.Steps)
	if err != nil {
		return nil, errors.Wrap(err, "unable to upscale image")
	}

	return out, nil
}

// CorrectFaces restores faces with the correction model named in the upscale argument. The source
// is returned untouched when no correction model is set.
type CorrectFaces struct {
	Logger  *zap.Logger
	Backend *Backend[FaceCorrector]
}

func (CorrectFaces) Name() string { return "correct-faces" }

func (s CorrectFaces) Run(ctx context.Context, server *model.ServerContext, _ *model.StageParams, _ *model.ImageParams, source image.Image, kwargs model.Kwargs) (image.Image, error) {
	logger := orNop(s.Logger)

	upscale, err := model.Arg[*UpscaleParams](kwargs, model.KeyUpscale)
	if err != nil {
		return nil, err
	}
	if upscale.CorrectionModel == "" {
		logger.Info("no face model given, skipping")

		return source, nil
	}

	key := loader.Key{Model: server.ModelFile(upscale.CorrectionModel), Format: upscale.format(), Options: upscale.Provider}
	logger.Info("correcting faces", zap.Stringer("model", key), zap.Float64("strength", upscale.FaceStrength))

	corrector, err := s.Backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	modelReady(kwargs, source)

	out, err := corrector.Correct(ctx, source, upscale.FaceStrength)
	if err != nil {
		return nil, errors.Wrap(err, "unable to correct faces")
	}

	return out, nil
}

// Outpaint expands the canvas like ExpandCanvas, then has the inpainting model named in the image
// parameters regenerate the masked regions.
type Outpaint struct {
	Logger  *zap.Logger
	Backend *Backend[Inpainter]
	// Format is the inpainting model format. It defaults to DefaultFormat.
	Format string
}

func (Outpaint) Name() string { return "outpaint" }

func (s Outpaint) Run(ctx context.Context, server *model.ServerContext, _ *model.StageParams, params *model.ImageParams, source image.Image, kwargs model.Kwargs) (image.Image, error) {
	logger := orNop(s.Logger)
	if params == nil {
		params = &model.ImageParams{}
	}

	expansion, err := expand(logger, server, params, source, kwargs)
	if err != nil {
		return nil, err
	}

	format := s.Format
	if format == "" {
		format = DefaultFormat
	}

	key := loader.Key{Model: server.ModelFile(params.Model), Format: format, Options: params.Scheduler}
	logger.Info("outpainting expanded canvas",
		zap.Stringer("model", key),
		zap.Int("width", expansion.Size.Width),
		zap.Int("height", expansion.Size.Height),
	)

	inpainter, err := s.Backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	modelReady(kwargs, expansion.Source)

	out, err := inpainter.Inpaint(ctx, params, expansion.Source, expansion.Mask, expansion.Noise)
	if err != nil {
		return nil, errors.Wrap(err, "unable to inpaint image")
	}

	return out, nil
}

func modelReady(kwargs model.Kwargs, img image.Image) {
	b := img.Bounds()
	kwargs.Progress()(model.Progress{Event: model.ModelReadyEvent, Width: b.Dx(), Height: b.Dy()})
}
