package stage

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"github.com/askiada/go-imgchain/pkg/imaging"
	"github.com/askiada/go-imgchain/pkg/outpaint"
	"github.com/askiada/go-imgchain/pkg/pipeline/model"
)

// reducingGap is how much larger than the target a thumbnail source must be before it is first
// shrunk with a cheaper filter.
const reducingGap = 2

// BlendMask composites the stage_source argument over the source image. The stage_mask argument,
// flattened over black, gives the weight of stage_source: white takes stage_source and black keeps
// the source.
type BlendMask struct {
	Logger *zap.Logger
}

func (BlendMask) Name() string { return "blend-mask" }

func (s BlendMask) Run(_ context.Context, server *model.ServerContext, _ *model.StageParams, _ *model.ImageParams, source image.Image, kwargs model.Kwargs) (image.Image, error) {
	logger := orNop(s.Logger)
	logger.Info("blending image using mask")

	stageSource, err := model.Arg[image.Image](kwargs, model.KeySource)
	if err != nil {
		return nil, err
	}
	mask, err := model.Arg[image.Image](kwargs, model.KeyMask)
	if err != nil {
		return nil, err
	}

	multMask := imaging.Luminance(imaging.Flatten(mask, color.Black))

	if server != nil && server.Debug {
		saveDebug(logger, server, "last-mask.png", mask)
		saveDebug(logger, server, "last-mult-mask.png", multMask)
	}

	out, err := imaging.Composite(stageSource, source, multMask)
	if err != nil {
		return nil, errors.Wrap(err, "unable to blend images")
	}

	return out, nil
}

// ReduceThumbnail shrinks the stage_source argument, or the source when it is not set, to fit in
// the size argument. The aspect ratio is preserved and the image is never enlarged.
type ReduceThumbnail struct {
	Logger *zap.Logger
}

func (ReduceThumbnail) Name() string { return "reduce-thumbnail" }

func (s ReduceThumbnail) Run(_ context.Context, _ *model.ServerContext, _ *model.StageParams, _ *model.ImageParams, source image.Image, kwargs model.Kwargs) (image.Image, error) {
	size, err := model.Arg[imaging.Size](kwargs, model.KeySize)
	if err != nil {
		return nil, err
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "thumbnail size %dx%d", size.Width, size.Height)
	}

	src, err := model.ArgOr[image.Image](kwargs, model.KeySource, source)
	if err != nil {
		return nil, err
	}

	out := Thumbnail(src, size)
	orNop(s.Logger).Info("created thumbnail",
		zap.Int("width", out.Rect.Dx()),
		zap.Int("height", out.Rect.Dy()),
	)

	return out, nil
}

// ThumbnailSize returns the largest size fitting in bound with the aspect ratio of src. src is
// returned unchanged when it already fits.
func ThumbnailSize(src, bound imaging.Size) imaging.Size {
	if bound.Width >= src.Width && bound.Height >= src.Height {
		return src
	}

	aspect := float64(src.Width) / float64(src.Height)
	x, y := bound.Width, bound.Height

	if float64(x)/float64(y) >= aspect {
		x = roundAspect(float64(y)*aspect, func(n int) float64 {
			return math.Abs(aspect - float64(n)/float64(y))
		})
	} else {
		y = roundAspect(float64(x)/aspect, func(n int) float64 {
			if n == 0 {
				return 0
			}

			return math.Abs(aspect - float64(x)/float64(n))
		})
	}

	return imaging.Size{Width: x, Height: y}
}

// roundAspect picks floor or ceil of v, whichever has the lowest error, and at least 1.
func roundAspect(v float64, errFn func(n int) float64) int {
	lo, hi := int(math.Floor(v)), int(math.Ceil(v))
	n := lo
	if errFn(hi) < errFn(lo) {
		n = hi
	}

	return max(n, 1)
}

// Thumbnail resizes src to ThumbnailSize(src, bound).
func Thumbnail(src image.Image, bound imaging.Size) *image.NRGBA {
	size := ThumbnailSize(imaging.SizeOf(src), bound)
	if size == imaging.SizeOf(src) {
		return imaging.Clone(src)
	}

	var current image.Image = src
	if b := src.Bounds(); b.Dx() >= size.Width*reducingGap*2 && b.Dy() >= size.Height*reducingGap*2 {
		draft := image.NewNRGBA(image.Rect(0, 0, size.Width*reducingGap, size.Height*reducingGap))
		xdraw.ApproxBiLinear.Scale(draft, draft.Bounds(), src, b, xdraw.Src, nil)
		current = draft
	}

	out := image.NewNRGBA(size.Rect())
	xdraw.CatmullRom.Scale(out, out.Bounds(), current, current.Bounds(), xdraw.Src, nil)

	return out
}

// UpscaleResample enlarges the source by the stage outscale with a Catmull-Rom filter.
type UpscaleResample struct {
	Logger *zap.Logger
}

func (UpscaleResample) Name() string { return "upscale-resample" }

func (s UpscaleResample) Run(_ context.Context, _ *model.ServerContext, stage *model.StageParams, _ *model.ImageParams, source image.Image, _ model.Kwargs) (image.Image, error) {
	scale := model.DefaultOutscale
	if stage != nil && stage.Outscale > 0 {
		scale = stage.Outscale
	}

	b := source.Bounds()
	orNop(s.Logger).Info("upscaling with resampling filter", zap.Int("scale", scale))

	if scale == 1 {
		return imaging.Clone(source), nil
	}

	out := image.NewNRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.CatmullRom.Scale(out, out.Bounds(), source, b, xdraw.Src, nil)

	return out, nil
}

// ExpandCanvas grows the canvas by the border argument and fills the new region following the
// fill, noise_source and mask_filter arguments. The stage_mask argument, when set, marks the parts
// of the source to regenerate as well.
type ExpandCanvas struct {
	Logger *zap.Logger
}

func (ExpandCanvas) Name() string { return "expand-canvas" }

func (s ExpandCanvas) Run(_ context.Context, server *model.ServerContext, _ *model.StageParams, params *model.ImageParams, source image.Image, kwargs model.Kwargs) (image.Image, error) {
	expansion, err := expand(orNop(s.Logger), server, params, source, kwargs)
	if err != nil {
		return nil, err
	}

	return expansion.Source, nil
}

func expand(logger *zap.Logger, server *model.ServerContext, params *model.ImageParams, source image.Image, kwargs model.Kwargs) (*outpaint.Expansion, error) {
	border, mask, err := expandArgs(source, kwargs)
	if err != nil {
		return nil, err
	}

	opts, err := expandOptions(params, kwargs)
	if err != nil {
		return nil, err
	}

	logger.Info("expanding image canvas",
		zap.Int("left", border.Left),
		zap.Int("top", border.Top),
		zap.Int("right", border.Right),
		zap.Int("bottom", border.Bottom),
	)

	expansion, err := outpaint.ExpandImage(source, mask, border, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to expand image")
	}

	if server != nil && server.Debug {
		saveDebug(logger, server, "last-source.png", expansion.Source)
		saveDebug(logger, server, "last-mask.png", expansion.Mask)
		saveDebug(logger, server, "last-noise.png", expansion.Noise)
	}

	return expansion, nil
}

// saveDebug writes img under the output path. Debug images never fail a stage.
func saveDebug(logger *zap.Logger, server *model.ServerContext, name string, img image.Image) {
	path := server.OutputFile(name)

	err := imaging.Save(path, img)
	if err != nil {
		logger.Warn("unable to save debug image", zap.String("path", path), zap.Error(err))

		return
	}

	logger.Debug("saved debug image", zap.String("path", path))
}
