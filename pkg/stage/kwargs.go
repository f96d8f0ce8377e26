package stage

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-imgchain/pkg/imaging"
	"github.com/askiada/go-imgchain/pkg/outpaint"
	"github.com/askiada/go-imgchain/pkg/pipeline/model"
)

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

// fillArg reads the fill colour, given either as a colour or as its name.
func fillArg(kwargs model.Kwargs) (color.Color, bool, error) {
	v, ok, err := model.OptionalArg[any](kwargs, model.KeyFill)
	if err != nil || !ok {
		return nil, false, err
	}

	switch fill := v.(type) {
	case color.Color:
		return fill, true, nil
	case string:
		c, err := imaging.ParseColor(fill)
		if err != nil {
			return nil, false, errors.Wrapf(err, "argument %q", model.KeyFill)
		}

		return c, true, nil
	default:
		return nil, false, &model.ArgumentTypeError{Name: model.KeyFill, Expected: "color.Color or string", Got: fmt.Sprintf("%T", v)}
	}
}

func noiseSourceArg(kwargs model.Kwargs) (outpaint.NoiseSource, bool, error) {
	v, ok, err := model.OptionalArg[any](kwargs, model.KeyNoiseSource)
	if err != nil || !ok {
		return "", false, err
	}

	switch source := v.(type) {
	case outpaint.NoiseSource:
		return source, true, nil
	case string:
		parsed, err := outpaint.ParseNoiseSource(source)

		return parsed, err == nil, err
	default:
		return "", false, &model.ArgumentTypeError{Name: model.KeyNoiseSource, Expected: "outpaint.NoiseSource or string", Got: fmt.Sprintf("%T", v)}
	}
}

func maskFilterArg(kwargs model.Kwargs) (outpaint.MaskFilter, bool, error) {
	v, ok, err := model.OptionalArg[any](kwargs, model.KeyMaskFilter)
	if err != nil || !ok {
		return "", false, err
	}

	switch filter := v.(type) {
	case outpaint.MaskFilter:
		return filter, true, nil
	case string:
		parsed, err := outpaint.ParseMaskFilter(filter)

		return parsed, err == nil, err
	default:
		return "", false, &model.ArgumentTypeError{Name: model.KeyMaskFilter, Expected: "outpaint.MaskFilter or string", Got: fmt.Sprintf("%T", v)}
	}
}

// expandOptions turns the canvas expansion keyword arguments into outpaint options. The random
// strategies are seeded from params so that a run can be reproduced.
func expandOptions(params *model.ImageParams, kwargs model.Kwargs) ([]outpaint.Option, error) {
	var opts []outpaint.Option
	if params != nil {
		opts = append(opts, outpaint.WithSeed(params.Seed))
	}

	fill, ok, err := fillArg(kwargs)
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, outpaint.WithFill(fill))
	}

	source, ok, err := noiseSourceArg(kwargs)
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, outpaint.WithNoiseSource(source))
	}

	filter, ok, err := maskFilterArg(kwargs)
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, outpaint.WithMaskFilter(filter))
	}

	return opts, nil
}

// expandArgs reads the border and the mask. A missing mask means the whole source is kept.
func expandArgs(source image.Image, kwargs model.Kwargs) (imaging.Border, image.Image, error) {
	border, err := model.Arg[imaging.Border](kwargs, model.KeyBorder)
	if err != nil {
		return border, nil, err
	}

	mask, ok, err := model.OptionalArg[image.Image](kwargs, model.KeyMask)
	if err != nil {
		return border, nil, err
	}
	if !ok {
		mask = imaging.NewRGBCanvas(imaging.SizeOf(source), color.Black)
	}

	return border, mask, nil
}
