package stage

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/askiada/go-imgchain/pkg/loader"
	"github.com/askiada/go-imgchain/pkg/pipeline/model"
)

// DefaultFormat is the model format assumed when none is configured.
const DefaultFormat = "onnx"

// DiffusionUpscaler enlarges an image with a diffusion model guided by a prompt.
type DiffusionUpscaler interface {
	Upscale(ctx context.Context, prompt string, source image.Image, seed int64, steps int) (image.Image, error)
}

// FaceCorrector restores the faces found in an image. strength blends the restored faces with the
// original ones.
type FaceCorrector interface {
	Correct(ctx context.Context, source image.Image, strength float64) (image.Image, error)
}

// Inpainter regenerates the white regions of mask. noise is the synthetic content already laid
// over those regions.
type Inpainter interface {
	Inpaint(ctx context.Context, params *model.ImageParams, source, mask, noise image.Image) (image.Image, error)
}

// Backend pairs a cache with the function loading its entries.
type Backend[T any] struct {
	Cache *loader.Cache[T]
	Load  loader.LoadFunc[T]
}

// NewBackend creates a backend with its own cache.
func NewBackend[T any](load loader.LoadFunc[T], opts ...loader.Option) *Backend[T] {
	return &Backend[T]{
		Cache: loader.New[T](opts...),
		Load:  load,
	}
}

// Get returns the backend for key, loading it on a cache miss.
func (b *Backend[T]) Get(ctx context.Context, key loader.Key) (T, error) {
	var zero T
	if b == nil || b.Load == nil {
		return zero, errors.Wrapf(ErrBackendUnavailable, "%s", key)
	}
	if b.Cache == nil {
		return b.Load(ctx, key)
	}

	return b.Cache.Get(ctx, key, b.Load)
}

// Close unloads every cached backend.
func (b *Backend[T]) Close() error {
	if b == nil || b.Cache == nil {
		return nil
	}

	return b.Cache.Close()
}

// Backends are the model backends available to the model stages. A nil field makes the matching
// stages fail with ErrBackendUnavailable.
type Backends struct {
	Upscalers      *Backend[DiffusionUpscaler]
	FaceCorrectors *Backend[FaceCorrector]
	Inpainters     *Backend[Inpainter]
}

// Close unloads every cached backend.
func (b Backends) Close() error {
	for _, closer := range []interface{ Close() error }{b.Upscalers, b.FaceCorrectors, b.Inpainters} {
		err := closer.Close()
		if err != nil {
			return errors.Wrap(err, "unable to close backends")
		}
	}

	return nil
}

// UpscaleParams configure the model stages. They travel in the "upscale" keyword argument.
type UpscaleParams struct {
	// Model is the upscaling model, relative to the server model path.
	Model string `yaml:"model"`
	// Format is the model format. It defaults to DefaultFormat.
	Format string `yaml:"format"`
	// CorrectionModel is the face correction model, relative to the server model path. Face
	// correction is skipped when it is empty.
	CorrectionModel string `yaml:"correction_model"`
	// FaceStrength blends corrected faces with the original ones, from 0 to 1.
	FaceStrength float64 `yaml:"face_strength"`
	// Provider selects where the model runs, for instance "cpu" or "cuda".
	Provider string `yaml:"provider"`
}

func (u *UpscaleParams) format() string {
	if u.Format == "" {
		return DefaultFormat
	}

	return u.Format
}
