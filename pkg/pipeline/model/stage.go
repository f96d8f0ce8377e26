package model

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/pkg/errors"
)

// Default stage parameters.
const (
	DefaultTileSize = 512
	DefaultOutscale = 1
)

// StageParams identifies one pipeline step.
type StageParams struct {
	// Name is used for logging. When empty the stage type name is used instead.
	Name string `yaml:"name"`
	// TileSize is the largest width or height the stage accepts before the image is tiled.
	TileSize int `yaml:"tile_size"`
	// Outscale is the factor by which the stage enlarges its input.
	Outscale int `yaml:"outscale"`
}

// NewStageParams returns parameters with the default tile size and an outscale of 1.
func NewStageParams(name string) *StageParams {
	return &StageParams{
		Name:     name,
		TileSize: DefaultTileSize,
		Outscale: DefaultOutscale,
	}
}

// Validate checks that the tile size is positive and the outscale at least 1.
func (s *StageParams) Validate() error {
	if s == nil {
		return errors.Wrap(ErrInvalidStageParams, "params must be set")
	}
	if s.TileSize <= 0 {
		return errors.Wrapf(ErrInvalidStageParams, "tile size %d must be greater than 0", s.TileSize)
	}
	if s.Outscale < 1 {
		return errors.Wrapf(ErrInvalidStageParams, "outscale %d must be at least 1", s.Outscale)
	}

	return nil
}

// ImageParams are the generation parameters. The pipeline never looks inside them.
type ImageParams struct {
	Model          string  `yaml:"model"`
	Scheduler      string  `yaml:"scheduler"`
	Prompt         string  `yaml:"prompt"`
	NegativePrompt string  `yaml:"negative_prompt"`
	Seed           int64   `yaml:"seed"`
	Steps          int     `yaml:"steps"`
	CFG            float64 `yaml:"cfg"`
}

// ServerContext carries the locations and flags every stage may need.
type ServerContext struct {
	OutputPath string `yaml:"output_path"`
	ModelPath  string `yaml:"model_path"`
	Debug      bool   `yaml:"debug"`
}

// OutputFile joins name to the output path.
func (s *ServerContext) OutputFile(name string) string {
	if s == nil {
		return name
	}

	return filepath.Join(s.OutputPath, name)
}

// ModelFile joins name to the model path.
func (s *ServerContext) ModelFile(name string) string {
	if s == nil {
		return name
	}

	return filepath.Join(s.ModelPath, name)
}

// Stage is one image transformation. Implementations must not modify source: the tiling engine
// crops the same source repeatedly.
type Stage interface {
	Run(ctx context.Context, server *ServerContext, stage *StageParams, params *ImageParams, source image.Image, kwargs Kwargs) (image.Image, error)
}

// StageFunc is a function adapter for the Stage interface.
type StageFunc func(ctx context.Context, server *ServerContext, stage *StageParams, params *ImageParams, source image.Image, kwargs Kwargs) (image.Image, error)

// Run implements Stage.
func (f StageFunc) Run(ctx context.Context, server *ServerContext, stage *StageParams, params *ImageParams, source image.Image, kwargs Kwargs) (image.Image, error) {
	return f(ctx, server, stage, params, source, kwargs)
}

// Named is implemented by stages that provide their own display name.
type Named interface {
	Name() string
}

// PipelineStage binds a stage to its parameters and keyword arguments.
type PipelineStage struct {
	Stage  Stage
	Params *StageParams
	Kwargs Kwargs
}

// DisplayName resolves the name used in logs: the explicit stage name, then the stage's own
// name, then its Go type.
func (ps PipelineStage) DisplayName() string {
	if ps.Params != nil && ps.Params.Name != "" {
		return ps.Params.Name
	}
	if named, ok := ps.Stage.(Named); ok {
		return named.Name()
	}

	return fmt.Sprintf("%T", ps.Stage)
}
