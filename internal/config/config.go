// Package config loads chain files.
//
// A chain file is a YAML document listing the server locations, the image parameters and the
// stages to run:
//
//	server:
//	  output_path: ./out
//	  model_path: ./models
//	params:
//	  model: stable-diffusion-inpainting
//	  prompt: a lighthouse at dusk
//	  seed: 42
//	stages:
//	  - type: expand-canvas
//	    tile_size: 4096
//	    args:
//	      border: {left: 64, right: 64}
//	      noise_source: histogram
//	  - type: upscale-resample
//	    outscale: 2
//
// Environment variables, optionally read from a .env file, override the file.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-imgchain/internal/logging"
	"github.com/askiada/go-imgchain/pkg/imaging"
	"github.com/askiada/go-imgchain/pkg/pipeline/model"
	"github.com/askiada/go-imgchain/pkg/stage"
)

// Environment variables overriding the chain file.
const (
	EnvOutputPath      = "IMGCHAIN_OUTPUT_PATH"
	EnvModelPath       = "IMGCHAIN_MODEL_PATH"
	EnvDebug           = "IMGCHAIN_DEBUG"
	EnvLogFile         = "IMGCHAIN_LOG_FILE"
	EnvTileConcurrency = "IMGCHAIN_TILE_CONCURRENCY"
)

var (
	ErrNoStages = errors.New("chain has no stages")
	ErrBadEnv   = errors.New("invalid environment variable")
)

// Chain is the content of a chain file.
type Chain struct {
	Server   model.ServerContext `yaml:"server"`
	Params   model.ImageParams   `yaml:"params"`
	Pipeline Pipeline            `yaml:"pipeline"`
	Logging  logging.Config      `yaml:"logging"`
	Stages   []Stage             `yaml:"stages"`

	// dir resolves the image paths of the stage arguments.
	dir string
}

// Pipeline tunes the runner.
type Pipeline struct {
	TileConcurrency int  `yaml:"tile_concurrency"`
	StrictScale     bool `yaml:"strict_scale"`
	// CacheCapacity is how many models each backend keeps loaded.
	CacheCapacity int `yaml:"cache_capacity"`
}

// Stage is one entry of the chain.
type Stage struct {
	Type     string `yaml:"type"`
	Name     string `yaml:"name"`
	TileSize int    `yaml:"tile_size"`
	Outscale int    `yaml:"outscale"`
	Args     Args   `yaml:"args"`
}

// Args are the keyword arguments a stage entry can set. Image arguments are file paths relative to
// the chain file.
type Args struct {
	Source      string               `yaml:"source"`
	Mask        string               `yaml:"mask"`
	Size        *imaging.Size        `yaml:"size"`
	Border      *imaging.Border      `yaml:"border"`
	Fill        string               `yaml:"fill"`
	NoiseSource string               `yaml:"noise_source"`
	MaskFilter  string               `yaml:"mask_filter"`
	Upscale     *stage.UpscaleParams `yaml:"upscale"`
}

// Load reads the chain file at path, then applies the environment overrides. Variables already set
// in the environment win over the ones found in the .env files.
func Load(path string, envFiles ...string) (*Chain, error) {
	err := loadEnvFiles(envFiles...)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read chain file")
	}

	chain, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "chain file %s", path)
	}
	chain.dir = filepath.Dir(path)

	err = chain.ApplyEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}

	return chain, nil
}

// Parse decodes a chain file and fills the stage defaults. Unknown fields are rejected.
func Parse(data []byte) (*Chain, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	chain := &Chain{}
	err := dec.Decode(chain)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse chain")
	}
	if len(chain.Stages) == 0 {
		return nil, ErrNoStages
	}

	for i := range chain.Stages {
		s := &chain.Stages[i]
		if s.TileSize == 0 {
			s.TileSize = model.DefaultTileSize
		}
		if s.Outscale == 0 {
			s.Outscale = model.DefaultOutscale
		}
	}

	return chain, nil
}

// ApplyEnv overrides the chain with the variables lookup knows about.
func (c *Chain) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvOutputPath); ok && v != "" {
		c.Server.OutputPath = v
	}
	if v, ok := lookup(EnvModelPath); ok && v != "" {
		c.Server.ModelPath = v
	}
	if v, ok := lookup(EnvLogFile); ok && v != "" {
		c.Logging.File = v
	}

	if v, ok := lookup(EnvDebug); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(ErrBadEnv, "%s=%q", EnvDebug, v)
		}
		c.Server.Debug = debug
	}

	if v, ok := lookup(EnvTileConcurrency); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return errors.Wrapf(ErrBadEnv, "%s=%q", EnvTileConcurrency, v)
		}
		c.Pipeline.TileConcurrency = n
	}

	return nil
}

func loadEnvFiles(files ...string) error {
	for _, file := range files {
		_, err := os.Stat(file)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		err = godotenv.Load(file)
		if err != nil {
			return errors.Wrapf(err, "unable to load %s", file)
		}
	}

	return nil
}
