package config

import (
	"image"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/askiada/go-imgchain/pkg/imaging"
	"github.com/askiada/go-imgchain/pkg/pipeline/model"
	"github.com/askiada/go-imgchain/pkg/stage"
)

// Build turns the chain entries into pipeline stages using registry. Image arguments are loaded
// once here, so that every tile of a stage shares them.
func (c *Chain) Build(registry *stage.Registry) ([]model.PipelineStage, error) {
	stages := make([]model.PipelineStage, 0, len(c.Stages))

	for i, entry := range c.Stages {
		st, err := registry.New(entry.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "stage %d", i)
		}

		params := &model.StageParams{Name: entry.Name, TileSize: entry.TileSize, Outscale: entry.Outscale}
		err = params.Validate()
		if err != nil {
			return nil, errors.Wrapf(err, "stage %d (%s)", i, entry.Type)
		}

		kwargs, err := entry.Args.kwargs(c.dir)
		if err != nil {
			return nil, errors.Wrapf(err, "stage %d (%s)", i, entry.Type)
		}

		stages = append(stages, model.PipelineStage{Stage: st, Params: params, Kwargs: kwargs})
	}

	return stages, nil
}

func (a Args) kwargs(dir string) (model.Kwargs, error) {
	kwargs := model.Kwargs{}

	for name, path := range map[string]string{model.KeySource: a.Source, model.KeyMask: a.Mask} {
		if path == "" {
			continue
		}

		img, err := loadImage(dir, path)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %q", name)
		}
		kwargs[name] = img
	}

	if a.Size != nil {
		kwargs[model.KeySize] = *a.Size
	}
	if a.Border != nil {
		kwargs[model.KeyBorder] = *a.Border
	}
	if a.Fill != "" {
		kwargs[model.KeyFill] = a.Fill
	}
	if a.NoiseSource != "" {
		kwargs[model.KeyNoiseSource] = a.NoiseSource
	}
	if a.MaskFilter != "" {
		kwargs[model.KeyMaskFilter] = a.MaskFilter
	}
	if a.Upscale != nil {
		kwargs[model.KeyUpscale] = a.Upscale
	}

	return kwargs, nil
}

func loadImage(dir, path string) (image.Image, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	return imaging.Load(path)
}
