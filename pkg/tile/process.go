package tile

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-imgchain/pkg/imaging"
)

// Filter transforms one tile. It receives a tile-sized copy of the source region and must return
// an image of tile size times the scale given to Process.
type Filter func(ctx context.Context, t Tile, img image.Image) (image.Image, error)

type processor struct {
	logger     *zap.Logger
	onTile     func(Tile, time.Duration)
	source     image.Image
	canvas     *image.NRGBA
	filters    []Filter
	size       int
	scale      int
	concurrent int
	strict     bool

	mu sync.Mutex
}

// Process splits source into size x size tiles, runs filters on each of them in order and pastes
// every result at (x*size*scale, y*size*scale) on a canvas of the source size times scale.
func Process(ctx context.Context, source image.Image, size, scale int, filters []Filter, opts ...Option) (*image.NRGBA, error) {
	if source == nil {
		return nil, ErrSourceMustBeSet
	}
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidTileSize, "got %d", size)
	}
	if scale < 1 {
		return nil, errors.Wrapf(ErrInvalidScale, "got %d", scale)
	}

	bounds := source.Bounds()
	p := &processor{
		logger:  zap.NewNop(),
		source:  source,
		filters: filters,
		size:    size,
		scale:   scale,
		canvas: imaging.NewRGBCanvas(imaging.Size{
			Width:  bounds.Dx() * scale,
			Height: bounds.Dy() * scale,
		}, color.Black),
	}
	for _, opt := range opts {
		opt(p)
	}

	tiles := Grid(bounds, size)
	covered := Covered(bounds, size)
	if covered != bounds {
		p.logger.Warn("image is not a multiple of the tile size, dropping remainder",
			zap.Int("tile", size),
			zap.Int("width", bounds.Dx()),
			zap.Int("height", bounds.Dy()),
			zap.Int("dropped_columns", bounds.Dx()-covered.Dx()),
			zap.Int("dropped_rows", bounds.Dy()-covered.Dy()),
		)
	}

	var err error
	if p.concurrent > 1 {
		err = p.runConcurrent(ctx, tiles)
	} else {
		err = p.runSequential(ctx, tiles)
	}
	if err != nil {
		return nil, err
	}

	return p.canvas, nil
}

func (p *processor) runSequential(ctx context.Context, tiles []Tile) error {
	for _, t := range tiles {
		err := p.processTile(ctx, t)
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *processor) runConcurrent(ctx context.Context, tiles []Tile) error {
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(p.concurrent)

	for _, t := range tiles {
		localTile := t
		errGrp.Go(func() error {
			return p.processTile(dCtx, localTile)
		})
	}

	return errGrp.Wait()
}

func (p *processor) processTile(ctx context.Context, t Tile) error {
	select {
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "tile %d of %d", t.Index, t.Total)
	default:
	}

	p.logger.Info("processing tile",
		zap.Int("index", t.Index),
		zap.Int("total", t.Total),
		zap.Int("x", t.X),
		zap.Int("y", t.Y),
	)

	start := time.Now()
	var img image.Image = imaging.Crop(p.source, t.Rect)
	for _, filter := range p.filters {
		out, err := filter(ctx, t, img)
		if err != nil {
			return errors.Wrapf(err, "tile %d of %d (%d.%d)", t.Index, t.Total, t.X, t.Y)
		}
		img = out
	}
	elapsed := time.Since(start)

	expected := p.size * p.scale
	got := img.Bounds().Size()
	if got.X != expected || got.Y != expected {
		if p.strict {
			return errors.Wrapf(ErrScaleMismatch, "tile %d: expected %dx%d, got %dx%d", t.Index, expected, expected, got.X, got.Y)
		}
		p.logger.Warn("tile result does not match the stage scale",
			zap.Int("index", t.Index),
			zap.Int("expected", expected),
			zap.Int("width", got.X),
			zap.Int("height", got.Y),
		)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	imaging.Paste(p.canvas, img, t.Origin(p.size, p.scale))
	if p.onTile != nil {
		p.onTile(t, elapsed)
	}

	return nil
}
