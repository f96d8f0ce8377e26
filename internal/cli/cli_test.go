package cli_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-imgchain/internal/cli"
	"github.com/askiada/go-imgchain/pkg/imaging"
	"github.com/askiada/go-imgchain/pkg/loader"
	"github.com/askiada/go-imgchain/pkg/stage"
)

const chainYAML = `
server:
  output_path: %s
params:
  seed: 7
stages:
  - type: expand-canvas
    name: expand
    args:
      border: {left: 2, top: 2, right: 2, bottom: 2}
      noise_source: uniform
  - type: upscale-resample
    name: resample
    outscale: 2
`

func executeCommand(t *testing.T, args []string, opts ...cli.Option) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := cli.NewRootCommand(opts...)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

// setup writes the chain file and a white 4x4 input. %s in chain is replaced by the directory.
func setup(t *testing.T, chain string) (dir, config, input string) {
	t.Helper()

	dir = t.TempDir()
	config = filepath.Join(dir, "chain.yaml")
	require.NoError(t, os.WriteFile(config, []byte(strings.ReplaceAll(chain, "%s", dir)), 0o600))

	input = filepath.Join(dir, "in.png")
	require.NoError(t, imaging.Save(input, imaging.NewCanvas(imaging.Size{Width: 4, Height: 4}, color.White)))

	return dir, config, input
}

func TestHelp(t *testing.T) {
	t.Parallel()

	out, _, err := executeCommand(t, []string{"--help"})
	require.NoError(t, err)

	for _, sub := range []string{"run", "graph", "stages"} {
		assert.Contains(t, out, sub)
	}
}

func TestStages(t *testing.T) {
	t.Parallel()

	out, _, err := executeCommand(t, []string{"stages"})
	require.NoError(t, err)
	assert.Contains(t, out, "expand-canvas\n")
	assert.Contains(t, out, "upscale-resample\n")
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir, config, input := setup(t, chainYAML)

	output := filepath.Join(dir, "out.png")
	graph := filepath.Join(dir, "chain.dot")

	stdout, stderr, err := executeCommand(t, []string{
		"run", "--config", config, "--input", input, "--output", output, "--graph", graph, "--concurrency", "2",
	})
	require.NoError(t, err)

	img, err := imaging.Load(output)
	require.NoError(t, err)
	assert.Equal(t, imaging.Size{Width: 16, Height: 16}, imaging.SizeOf(img))

	assert.Contains(t, stdout, "saved")
	assert.Contains(t, stdout, "1. expand")
	assert.Contains(t, stdout, "2. resample")
	assert.Contains(t, stderr, "[1/2] expand (4x4)")
	assert.Contains(t, stderr, "[2/2] resample (8x8)")

	dot, err := os.ReadFile(graph)
	require.NoError(t, err)
	assert.Contains(t, string(dot), `"1. expand" -> "2. resample"`)
}

func TestRunDefaultOutput(t *testing.T) {
	t.Parallel()

	dir, config, input := setup(t, chainYAML)

	_, _, err := executeCommand(t, []string{"run", "-c", config, "-i", input})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "output.png"))
	assert.NoError(t, err)
}

type fakeCorrector struct{}

func (fakeCorrector) Correct(_ context.Context, source image.Image, _ float64) (image.Image, error) {
	return imaging.NewCanvas(imaging.SizeOf(source), color.Black), nil
}

func TestRunWithBackends(t *testing.T) {
	t.Parallel()

	dir, config, input := setup(t, `
stages:
  - type: correct-faces
    args:
      upscale:
        correction_model: gfpgan
`)
	output := filepath.Join(dir, "out.png")

	args := []string{"run", "-c", config, "-i", input, "-o", output}

	_, _, err := executeCommand(t, args)
	assert.ErrorIs(t, err, stage.ErrBackendUnavailable)

	backends := stage.Backends{
		FaceCorrectors: stage.NewBackend(func(context.Context, loader.Key) (stage.FaceCorrector, error) {
			return fakeCorrector{}, nil
		}),
	}
	_, _, err = executeCommand(t, args, cli.WithBackends(backends))
	require.NoError(t, err)

	img, err := imaging.Load(output)
	require.NoError(t, err)
	assert.True(t, imaging.Equal(imaging.NewCanvas(imaging.Size{Width: 4, Height: 4}, color.Black), img))
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	dir, config, input := setup(t, "stages:\n  - type: sharpen\n")

	_, _, err := executeCommand(t, []string{"run", "-c", config})
	assert.Error(t, err)

	_, _, err = executeCommand(t, []string{"run", "-c", config, "-i", input})
	assert.ErrorIs(t, err, stage.ErrUnknownStage)

	_, _, err = executeCommand(t, []string{"run", "-c", filepath.Join(dir, "missing.yaml"), "-i", input})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGraph(t *testing.T) {
	t.Parallel()

	dir, config, _ := setup(t, chainYAML)

	out, _, err := executeCommand(t, []string{"graph", "-c", config})
	require.NoError(t, err)
	assert.Contains(t, out, `"start" -> "1. expand"`)
	assert.Contains(t, out, `"2. resample" -> "end"`)

	dotFile := filepath.Join(dir, "graphs", "chain.dot")
	out, _, err = executeCommand(t, []string{"graph", "-c", config, "-o", dotFile})
	require.NoError(t, err)
	assert.Contains(t, out, dotFile)

	content, err := os.ReadFile(dotFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"1. expand" -> "2. resample"`)
}
