package pipeline_test

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	xdraw "golang.org/x/image/draw"

	"github.com/askiada/go-imgchain/pkg/imaging"
	"github.com/askiada/go-imgchain/pkg/pipeline"
	"github.com/askiada/go-imgchain/pkg/pipeline/drawer"
	"github.com/askiada/go-imgchain/pkg/pipeline/measure"
	"github.com/askiada/go-imgchain/pkg/pipeline/model"
)

func newSource(w, h int) *image.NRGBA {
	return imaging.NewCanvas(imaging.Size{Width: w, Height: h}, color.NRGBA{R: 10, G: 20, B: 30, A: 0xff})
}

// brighten adds delta to the red channel and records its name in calls.
func brighten(name string, delta uint8, calls *[]string, mu *sync.Mutex) model.PipelineStage {
	return model.PipelineStage{
		Stage: model.StageFunc(func(_ context.Context, _ *model.ServerContext, _ *model.StageParams, _ *model.ImageParams, source image.Image, _ model.Kwargs) (image.Image, error) {
			mu.Lock()
			*calls = append(*calls, name)
			mu.Unlock()

			out := imaging.Clone(source)
			for i := 0; i < len(out.Pix); i += 4 {
				out.Pix[i] += delta
			}

			return out, nil
		}),
		Params: model.NewStageParams(name),
	}
}

// upscale resizes every input by scale and records the input sizes.
func upscale(name string, tileSize, scale int, sizes *[]image.Point, mu *sync.Mutex) model.PipelineStage {
	params := model.NewStageParams(name)
	params.TileSize = tileSize
	params.Outscale = scale

	return model.PipelineStage{
		Stage: model.StageFunc(func(_ context.Context, _ *model.ServerContext, _ *model.StageParams, _ *model.ImageParams, source image.Image, _ model.Kwargs) (image.Image, error) {
			mu.Lock()
			*sizes = append(*sizes, source.Bounds().Size())
			mu.Unlock()

			b := source.Bounds()
			out := image.NewNRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
			xdraw.NearestNeighbor.Scale(out, out.Bounds(), source, b, xdraw.Src, nil)

			return out, nil
		}),
		Params: params,
	}
}

func failing(name string, err error) model.PipelineStage {
	return model.PipelineStage{
		Stage: model.StageFunc(func(context.Context, *model.ServerContext, *model.StageParams, *model.ImageParams, image.Image, model.Kwargs) (image.Image, error) {
			return nil, err
		}),
		Params: model.NewStageParams(name),
	}
}

func TestRunOrder(t *testing.T) {
	t.Parallel()

	var (
		calls []string
		mu    sync.Mutex
	)

	pipe, err := pipeline.New([]model.PipelineStage{
		brighten("first", 1, &calls, &mu),
		brighten("second", 2, &calls, &mu),
	})
	require.NoError(t, err)
	pipe.Append(brighten("third", 3, &calls, &mu))

	got, err := pipe.Run(context.Background(), nil, nil, newSource(4, 4))
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, calls)
	assert.Equal(t, color.NRGBA{R: 16, G: 20, B: 30, A: 0xff}, color.NRGBAModel.Convert(got.At(0, 0)))
	assert.Len(t, pipe.Stages(), 3)
}

func TestRunDoesNotModifySource(t *testing.T) {
	t.Parallel()

	var (
		calls []string
		mu    sync.Mutex
	)

	src := newSource(4, 4)
	pipe, err := pipeline.New([]model.PipelineStage{brighten("first", 5, &calls, &mu)})
	require.NoError(t, err)

	_, err = pipe.Run(context.Background(), nil, nil, src)
	require.NoError(t, err)
	assert.Equal(t, uint8(10), src.Pix[0])
}

func TestRunNoStages(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(nil)
	require.NoError(t, err)

	src := newSource(3, 3)
	got, err := pipe.Run(context.Background(), nil, nil, src)
	require.NoError(t, err)
	assert.Same(t, src, got)
}

func TestRunNilSource(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(nil)
	require.NoError(t, err)

	_, err = pipe.Run(context.Background(), nil, nil, nil)
	assert.ErrorIs(t, err, pipeline.ErrSourceMustBeSet)
}

func TestRunInvalidParams(t *testing.T) {
	t.Parallel()

	var (
		calls []string
		mu    sync.Mutex
	)

	bad := brighten("bad", 1, &calls, &mu)
	bad.Params.TileSize = 0

	pipe, err := pipeline.New([]model.PipelineStage{brighten("first", 1, &calls, &mu), bad})
	require.NoError(t, err)

	_, err = pipe.Run(context.Background(), nil, nil, newSource(2, 2))
	require.ErrorIs(t, err, model.ErrInvalidStageParams)
	assert.Contains(t, err.Error(), "bad")
	assert.Empty(t, calls)

	pipe, err = pipeline.New([]model.PipelineStage{{Params: model.NewStageParams("empty")}})
	require.NoError(t, err)
	_, err = pipe.Run(context.Background(), nil, nil, newSource(2, 2))
	assert.ErrorIs(t, err, model.ErrInvalidStageParams)
}

func TestRunErrorAborts(t *testing.T) {
	t.Parallel()

	var (
		calls []string
		mu    sync.Mutex
	)

	pipe, err := pipeline.New([]model.PipelineStage{
		brighten("first", 1, &calls, &mu),
		failing("broken", assert.AnError),
		brighten("third", 1, &calls, &mu),
	})
	require.NoError(t, err)

	got, err := pipe.Run(context.Background(), nil, nil, newSource(2, 2))
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "broken")
	assert.Nil(t, got)
	assert.Equal(t, []string{"first"}, calls)
}

func TestRunNilOutput(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New([]model.PipelineStage{failing("empty", nil)})
	require.NoError(t, err)

	_, err = pipe.Run(context.Background(), nil, nil, newSource(2, 2))
	assert.ErrorIs(t, err, pipeline.ErrNoOutput)
}

func TestRunCancel(t *testing.T) {
	t.Parallel()

	var (
		calls []string
		mu    sync.Mutex
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelling := model.PipelineStage{
		Stage: model.StageFunc(func(_ context.Context, _ *model.ServerContext, _ *model.StageParams, _ *model.ImageParams, source image.Image, _ model.Kwargs) (image.Image, error) {
			cancel()

			return source, nil
		}),
		Params: model.NewStageParams("cancel"),
	}

	pipe, err := pipeline.New([]model.PipelineStage{cancelling, brighten("second", 1, &calls, &mu)})
	require.NoError(t, err)

	_, err = pipe.Run(ctx, nil, nil, newSource(2, 2))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}

func TestRunTiling(t *testing.T) {
	t.Parallel()

	var (
		sizes []image.Point
		mu    sync.Mutex
	)

	pipe, err := pipeline.New([]model.PipelineStage{upscale("upscale", 512, 2, &sizes, &mu)})
	require.NoError(t, err)

	src := newSource(1024, 1024)
	src.SetNRGBA(600, 100, color.NRGBA{R: 0xff, A: 0xff})

	got, err := pipe.Run(context.Background(), nil, nil, src)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 2048, 2048), got.Bounds())
	assert.Equal(t, []image.Point{{512, 512}, {512, 512}, {512, 512}, {512, 512}}, sizes)
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, color.NRGBAModel.Convert(got.At(1201, 201)))
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 0xff}, color.NRGBAModel.Convert(got.At(2047, 2047)))
}

func TestRunWithinTileSize(t *testing.T) {
	t.Parallel()

	var (
		sizes []image.Point
		mu    sync.Mutex
	)

	pipe, err := pipeline.New([]model.PipelineStage{upscale("upscale", 512, 2, &sizes, &mu)})
	require.NoError(t, err)

	got, err := pipe.Run(context.Background(), nil, nil, newSource(512, 300))
	require.NoError(t, err)

	assert.Equal(t, []image.Point{{512, 300}}, sizes)
	assert.Equal(t, image.Rect(0, 0, 1024, 600), got.Bounds())
}

func TestRunTilingConcurrent(t *testing.T) {
	t.Parallel()

	var (
		sizes []image.Point
		mu    sync.Mutex
	)

	src := newSource(64, 48)
	for i := range src.Pix {
		src.Pix[i] = uint8(i % 251)
	}

	sequential, err := pipeline.New([]model.PipelineStage{upscale("upscale", 16, 2, &sizes, &mu)})
	require.NoError(t, err)
	want, err := sequential.Run(context.Background(), nil, nil, src)
	require.NoError(t, err)

	concurrent, err := pipeline.New([]model.PipelineStage{upscale("upscale", 16, 2, &sizes, &mu)},
		pipeline.WithTileConcurrency(4))
	require.NoError(t, err)
	got, err := concurrent.Run(context.Background(), nil, nil, src)
	require.NoError(t, err)

	assert.True(t, imaging.Equal(want, got))
	assert.Len(t, sizes, 24)
}

func TestRunStrictScale(t *testing.T) {
	t.Parallel()

	var (
		calls []string
		mu    sync.Mutex
	)

	stage := brighten("identity", 1, &calls, &mu)
	stage.Params.TileSize = 8
	stage.Params.Outscale = 2

	pipe, err := pipeline.New([]model.PipelineStage{stage}, pipeline.WithStrictScale(true))
	require.NoError(t, err)

	_, err = pipe.Run(context.Background(), nil, nil, newSource(16, 16))
	assert.Error(t, err)
	assert.Len(t, calls, 1)
}

func TestRunDebugSavesLastTile(t *testing.T) {
	t.Parallel()

	var (
		sizes []image.Point
		mu    sync.Mutex
	)

	dir := t.TempDir()
	pipe, err := pipeline.New([]model.PipelineStage{upscale("upscale", 8, 1, &sizes, &mu)})
	require.NoError(t, err)

	_, err = pipe.Run(context.Background(), &model.ServerContext{OutputPath: dir, Debug: true}, nil, newSource(16, 8))
	require.NoError(t, err)

	tile, err := imaging.Load(filepath.Join(dir, "last-tile.png"))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), tile.Bounds())

	other := t.TempDir()
	_, err = pipe.Run(context.Background(), &model.ServerContext{OutputPath: other}, nil, newSource(16, 8))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(other, "last-tile.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunProgress(t *testing.T) {
	t.Parallel()

	var (
		sizes  []image.Point
		events []model.Progress
		mu     sync.Mutex
	)

	pipe, err := pipeline.New([]model.PipelineStage{upscale("upscale", 8, 1, &sizes, &mu)},
		pipeline.WithProgress(func(p model.Progress) {
			events = append(events, p)
		}),
	)
	require.NoError(t, err)

	_, err = pipe.Run(context.Background(), nil, nil, newSource(16, 16))
	require.NoError(t, err)

	kinds := make([]model.ProgressEvent, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Event)
		assert.NotEmpty(t, e.RunID)
		assert.Equal(t, events[0].RunID, e.RunID)
		assert.Equal(t, 1, e.StageTotal)
	}

	assert.Equal(t, []model.ProgressEvent{
		model.PipelineStartEvent,
		model.StageStartEvent,
		model.TileEvent, model.TileEvent, model.TileEvent, model.TileEvent,
		model.StageEndEvent,
		model.PipelineEndEvent,
	}, kinds)
	assert.Equal(t, 3, events[5].Tile)
	assert.Equal(t, 4, events[5].TileTotal)
}

// stepping reports one denoise-step event through the callback it is given.
func stepping(name string, kwargs model.Kwargs) model.PipelineStage {
	return model.PipelineStage{
		Stage: model.StageFunc(func(_ context.Context, _ *model.ServerContext, _ *model.StageParams, _ *model.ImageParams, source image.Image, kw model.Kwargs) (image.Image, error) {
			kw.Progress()(model.Progress{Event: "denoise-step", Tile: 7})

			return source, nil
		}),
		Params: model.NewStageParams(name),
		Kwargs: kwargs,
	}
}

func TestRunStageProgress(t *testing.T) {
	t.Parallel()

	var (
		events []model.Progress
		own    []model.Progress
	)

	pipe, err := pipeline.New([]model.PipelineStage{
		stepping("first", nil),
		stepping("second", model.Kwargs{model.KeyCallback: model.ProgressFunc(func(p model.Progress) {
			own = append(own, p)
		})}),
	}, pipeline.WithProgress(func(p model.Progress) {
		events = append(events, p)
	}))
	require.NoError(t, err)

	_, err = pipe.Run(context.Background(), nil, nil, newSource(2, 2))
	require.NoError(t, err)

	var steps []model.Progress
	for _, e := range events {
		if e.Event == "denoise-step" {
			steps = append(steps, e)
		}
	}
	require.Len(t, steps, 1)
	assert.Equal(t, "first", steps[0].Stage)
	assert.Equal(t, 0, steps[0].StageIndex)
	assert.Equal(t, 7, steps[0].Tile)
	assert.Equal(t, 2, steps[0].StageTotal)
	assert.Equal(t, events[0].RunID, steps[0].RunID)

	// A callback set on the stage itself is kept.
	require.Len(t, own, 1)
	assert.Empty(t, own[0].RunID)

	// Without WithProgress the stage gets a no-op.
	quiet, err := pipeline.New([]model.PipelineStage{stepping("first", nil)})
	require.NoError(t, err)
	_, err = quiet.Run(context.Background(), nil, nil, newSource(2, 2))
	require.NoError(t, err)
}

func noop(name string, tileSize int) model.PipelineStage {
	params := model.NewStageParams(name)
	params.TileSize = tileSize

	return model.PipelineStage{
		Stage: model.StageFunc(func(_ context.Context, _ *model.ServerContext, _ *model.StageParams, _ *model.ImageParams, source image.Image, _ model.Kwargs) (image.Image, error) {
			return source, nil
		}),
		Params: params,
	}
}

func TestRunNoopStage(t *testing.T) {
	t.Parallel()

	var (
		calls []string
		mu    sync.Mutex
	)

	src := newSource(20, 16)
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i+1] = uint8(i % 199)
	}

	run := func(stages ...model.PipelineStage) *image.NRGBA {
		pipe, err := pipeline.New(stages)
		require.NoError(t, err)
		out, err := pipe.Run(context.Background(), nil, nil, src)
		require.NoError(t, err)

		return imaging.Clone(out)
	}

	want := run(brighten("a", 1, &calls, &mu), brighten("b", 2, &calls, &mu))
	got := run(brighten("a", 1, &calls, &mu), noop("noop", 20), brighten("b", 2, &calls, &mu))
	assert.True(t, imaging.Equal(want, got))

	// A tile size that does not divide the image drops the remainder columns.
	tiled := run(brighten("a", 1, &calls, &mu), noop("noop", 8), brighten("b", 2, &calls, &mu))
	assert.Equal(t, image.Rect(0, 0, 20, 16), tiled.Bounds())
	covered := image.Rect(0, 0, 16, 16)
	assert.True(t, imaging.Equal(want.SubImage(covered), tiled.SubImage(covered)))
	assert.False(t, imaging.Equal(want, tiled))
	assert.Equal(t, color.NRGBA{R: 2, A: 0xff}, tiled.NRGBAAt(18, 3))
}

func TestRunLogs(t *testing.T) {
	t.Parallel()

	var (
		calls []string
		mu    sync.Mutex
	)

	core, logs := observer.New(zap.InfoLevel)
	pipe, err := pipeline.New([]model.PipelineStage{brighten("first", 1, &calls, &mu)},
		pipeline.WithLogger(zap.New(core)))
	require.NoError(t, err)

	_, err = pipe.Run(context.Background(), nil, nil, newSource(2, 2))
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("running pipeline on source image").Len())
	assert.Equal(t, 1, logs.FilterMessage("source image within tile size, running stage").Len())
	assert.Equal(t, 1, logs.FilterField(zap.String("stage", "first")).FilterMessage("finished running pipeline stage").Len())
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(format string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))

	return nil
}

func (r *recorder) New() error {
	return r.add("new")
}

func (r *recorder) PrepareStage(parent, stage *model.StageInfo) error {
	return r.add("prepare %s -> %s tiled=%t", parent.Label(), stage.Label(), stage.Tiled)
}

func (r *recorder) OnStageOutput(parent, stage *model.StageInfo, _ time.Duration) error {
	return r.add("output %s -> %s", parent.Label(), stage.Label())
}

func (r *recorder) OnTileOutput(stage *model.StageInfo, tile model.TileInfo, _ time.Duration) error {
	return r.add("tile %s %d/%d", stage.Label(), tile.Index, tile.Total)
}

func (r *recorder) Finish() error {
	return r.add("finish")
}

func TestRunObserver(t *testing.T) {
	t.Parallel()

	var (
		calls []string
		sizes []image.Point
		mu    sync.Mutex
	)

	rec := &recorder{}
	pipe, err := pipeline.New([]model.PipelineStage{
		brighten("first", 1, &calls, &mu),
		upscale("second", 4, 1, &sizes, &mu),
	}, pipeline.WithObserver(rec))
	require.NoError(t, err)

	_, err = pipe.Run(context.Background(), nil, nil, newSource(8, 4))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"new",
		"prepare start -> 1. first tiled=false",
		"output start -> 1. first",
		"prepare 1. first -> 2. second tiled=true",
		"tile 2. second 0/2",
		"tile 2. second 1/2",
		"output 1. first -> 2. second",
		"prepare 2. second -> end tiled=false",
		"finish",
	}, rec.calls)
}

func TestRunMeasureAndDrawer(t *testing.T) {
	t.Parallel()

	var (
		sizes []image.Point
		mu    sync.Mutex
	)

	dotFile := filepath.Join(t.TempDir(), "graph", "chain.dot")
	msr := measure.NewDefaultMeasure()

	pipe, err := pipeline.New([]model.PipelineStage{
		upscale("upscale", 4, 2, &sizes, &mu),
		upscale("resize", 64, 1, &sizes, &mu),
	},
		pipeline.WithObserver(measure.PipelineMeasure(msr)),
		pipeline.WithObserver(drawer.PipelineDrawer(drawer.NewDOTDrawer(dotFile), msr)),
	)
	require.NoError(t, err)

	_, err = pipe.Run(context.Background(), nil, nil, newSource(8, 8))
	require.NoError(t, err)

	assert.Equal(t, int64(4), msr.GetMetric("1. upscale").TileCount())
	assert.Equal(t, int64(0), msr.GetMetric("2. resize").TileCount())
	assert.Contains(t, msr.GetMetric("2. resize").AllTransports(), "1. upscale")

	content, err := os.ReadFile(dotFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"start" -> "1. upscale"`)
	assert.Contains(t, string(content), `"1. upscale" -> "2. resize"`)
	assert.Contains(t, string(content), `"2. resize" -> "end"`)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	var (
		calls []string
		mu    sync.Mutex
	)

	rec := &recorder{}
	pipe, err := pipeline.New([]model.PipelineStage{brighten("only", 1, &calls, &mu)}, pipeline.WithObserver(rec))
	require.NoError(t, err)

	require.NoError(t, pipe.Describe())
	assert.Empty(t, calls)
	assert.Equal(t, []string{
		"new",
		"prepare start -> 1. only tiled=false",
		"prepare 1. only -> end tiled=false",
		"finish",
	}, rec.calls)
}
