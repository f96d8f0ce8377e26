package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-imgchain/pkg/imaging"
	"github.com/askiada/go-imgchain/pkg/pipeline/model"
	"github.com/askiada/go-imgchain/pkg/tile"
)

const lastTileFile = "last-tile.png"

// runStage runs st on img, tiling when img does not fit in the stage tile size.
func (r *run) runStage(ctx context.Context, parent, info *model.StageInfo, st model.PipelineStage, img image.Image) (image.Image, error) {
	bounds := img.Bounds()
	tileSize := st.Params.TileSize
	info.Tiled = bounds.Dx() > tileSize || bounds.Dy() > tileSize
	if info.Tiled {
		info.Tiles = len(tile.Grid(bounds, tileSize))
	}

	err := r.observers.each("prepare stage", func(obs model.PipelineOption) error {
		return obs.PrepareStage(parent, info)
	})
	if err != nil {
		return nil, err
	}

	logger := r.logger.With(zap.String("stage", info.Name), zap.Int("index", info.Index))
	logger.Info("running pipeline stage on result image",
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
	)
	r.report(model.Progress{
		Event:      model.StageStartEvent,
		Stage:      info.Name,
		StageIndex: info.Index,
		TileTotal:  info.Tiles,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
	})

	start := time.Now()

	var out image.Image
	if info.Tiled {
		logger.Info("source image larger than tile size, tiling stage", zap.Int("tile", tileSize), zap.Int("tiles", info.Tiles))
		out, err = r.runTiled(ctx, logger, info, st, img)
	} else {
		logger.Info("source image within tile size, running stage")
		out, err = r.runWhole(ctx, info, st, img)
	}
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	size := imaging.SizeOf(out)

	logger.Info("finished running pipeline stage",
		zap.Int("width", size.Width),
		zap.Int("height", size.Height),
		zap.Duration("elapsed", elapsed),
	)

	err = r.observers.each("notify stage output", func(obs model.PipelineOption) error {
		return obs.OnStageOutput(parent, info, elapsed)
	})
	if err != nil {
		return nil, err
	}

	r.report(model.Progress{
		Event:      model.StageEndEvent,
		Stage:      info.Name,
		StageIndex: info.Index,
		TileTotal:  info.Tiles,
		Width:      size.Width,
		Height:     size.Height,
	})

	return out, nil
}

func (r *run) runWhole(ctx context.Context, info *model.StageInfo, st model.PipelineStage, img image.Image) (image.Image, error) {
	out, err := st.Stage.Run(ctx, r.server, st.Params, r.params, img, r.stageKwargs(info, st.Kwargs))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNoOutput
	}

	return out, nil
}

func (r *run) runTiled(ctx context.Context, logger *zap.Logger, info *model.StageInfo, st model.PipelineStage, img image.Image) (image.Image, error) {
	filter := func(ctx context.Context, t tile.Tile, tileImg image.Image) (image.Image, error) {
		out, err := r.runWhole(ctx, info, st, tileImg)
		if err != nil {
			return nil, err
		}

		if r.server.Debug {
			err := r.saveDebug(lastTileFile, out)
			if err != nil {
				return nil, err
			}
		}

		return out, nil
	}

	onTile := func(t tile.Tile, elapsed time.Duration) {
		tileInfo := model.TileInfo{Index: t.Index, Total: t.Total, X: t.X, Y: t.Y, Rect: t.Rect}

		err := r.observers.each("notify tile output", func(obs model.PipelineOption) error {
			return obs.OnTileOutput(info, tileInfo, elapsed)
		})
		if err != nil {
			logger.Warn("observer failed on tile output", zap.Int("tile", t.Index), zap.Error(err))
		}

		r.report(model.Progress{
			Event:      model.TileEvent,
			Stage:      info.Name,
			StageIndex: info.Index,
			Tile:       t.Index,
			TileTotal:  t.Total,
			Width:      t.Rect.Dx(),
			Height:     t.Rect.Dy(),
		})
	}

	return tile.Process(ctx, img, info.TileSize, info.Outscale, []tile.Filter{filter},
		tile.WithLogger(logger),
		tile.WithConcurrency(r.tileConcurrency),
		tile.WithStrictScale(r.strictScale),
		tile.WithTileCallback(onTile),
	)
}

// stageKwargs hands the run progress callback to the stage under model.KeyCallback. A callback
// already set in the chain is left alone.
func (r *run) stageKwargs(info *model.StageInfo, kwargs model.Kwargs) model.Kwargs {
	if r.progress == nil || kwargs.Has(model.KeyCallback) {
		return kwargs
	}

	return kwargs.With(model.KeyCallback, model.ProgressFunc(func(p model.Progress) {
		p.Stage = info.Name
		p.StageIndex = info.Index
		r.report(p)
	}))
}

func (r *run) saveDebug(name string, img image.Image) error {
	r.debugMu.Lock()
	defer r.debugMu.Unlock()

	return errors.Wrap(imaging.Save(r.server.OutputFile(name), img), "unable to save debug image")
}
