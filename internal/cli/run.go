package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/askiada/go-imgchain/internal/config"
	"github.com/askiada/go-imgchain/internal/logging"
	"github.com/askiada/go-imgchain/pkg/imaging"
	"github.com/askiada/go-imgchain/pkg/pipeline"
	"github.com/askiada/go-imgchain/pkg/pipeline/drawer"
	"github.com/askiada/go-imgchain/pkg/pipeline/measure"
	"github.com/askiada/go-imgchain/pkg/pipeline/model"
	"github.com/askiada/go-imgchain/pkg/stage"
)

const defaultOutput = "output.png"

type chainFlags struct {
	config  string
	envFile string
}

func (f *chainFlags) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&f.config, "config", "c", "chain.yaml", "chain file")
	fs.StringVar(&f.envFile, "env-file", ".env", "file of environment overrides, ignored when missing")
}

func (f *chainFlags) load() (*config.Chain, error) {
	return config.Load(f.config, f.envFile)
}

type runFlags struct {
	chainFlags
	input       string
	output      string
	graph       string
	debug       bool
	concurrency int
}

func (f *runFlags) addFlags(fs *pflag.FlagSet) {
	f.chainFlags.addFlags(fs)
	fs.StringVarP(&f.input, "input", "i", "", "source image (PNG, JPEG or WebP)")
	fs.StringVarP(&f.output, "output", "o", "", "result image, defaults to output.png under the server output path")
	fs.StringVar(&f.graph, "graph", "", "write the timed chain as a DOT graph to this file")
	fs.BoolVar(&f.debug, "debug", false, "save intermediate images and log at debug level")
	fs.IntVar(&f.concurrency, "concurrency", 0, "tiles processed at once, 0 keeps the chain file value")
}

func newRunCommand(o *options) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a chain on an image",
		Example: `  imgchain run --config chain.yaml --input in.png --output out.png
  imgchain run -c chain.yaml -i in.png --graph chain.dot --concurrency 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChain(cmd, o, flags)
		},
	}
	flags.addFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runChain(cmd *cobra.Command, o *options, flags *runFlags) error {
	chain, err := flags.load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("debug") {
		chain.Server.Debug = flags.debug
	}
	if flags.concurrency > 0 {
		chain.Pipeline.TileConcurrency = flags.concurrency
	}

	logCfg := chain.Logging
	if chain.Server.Debug {
		logCfg.Development = true
	}
	logger, err := logging.New(logCfg, logging.WithConsole(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	stages, err := chain.Build(stage.NewRegistry(logger, o.backends))
	if err != nil {
		return err
	}

	msr := measure.NewDefaultMeasure()
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithTileConcurrency(chain.Pipeline.TileConcurrency),
		pipeline.WithStrictScale(chain.Pipeline.StrictScale),
		pipeline.WithProgress(progressPrinter(cmd.ErrOrStderr())),
		pipeline.WithObserver(measure.PipelineMeasure(msr)),
	}
	if flags.graph != "" {
		opts = append(opts, pipeline.WithObserver(drawer.PipelineDrawer(drawer.NewDOTDrawer(flags.graph), msr)))
	}

	pipe, err := pipeline.New(stages, opts...)
	if err != nil {
		return err
	}

	source, err := imaging.Load(flags.input)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := pipe.Run(cmd.Context(), &chain.Server, &chain.Params, source)
	if err != nil {
		return err
	}

	output := flags.output
	if output == "" {
		output = chain.Server.OutputFile(defaultOutput)
	}
	err = imaging.Save(output, out)
	if err != nil {
		return errors.Wrap(err, "unable to save result")
	}
	logger.Info("saved result image", zap.String("path", output))

	printSummary(cmd.OutOrStdout(), stages, msr, output, imaging.SizeOf(out), time.Since(start))

	return nil
}

func progressPrinter(w io.Writer) model.ProgressFunc {
	step := color.New(color.FgCyan).SprintFunc()

	return func(p model.Progress) {
		if p.Event != model.StageStartEvent {
			return
		}
		fmt.Fprintf(w, "%s %s (%dx%d)\n", step(fmt.Sprintf("[%d/%d]", p.StageIndex+1, p.StageTotal)), p.Stage, p.Width, p.Height)
	}
}

func printSummary(w io.Writer, stages []model.PipelineStage, msr measure.Measure, output string, size imaging.Size, elapsed time.Duration) {
	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(w, "%s %s (%dx%d) in %s\n", ok("saved"), output, size.Width, size.Height, elapsed.Round(time.Millisecond))

	for i, st := range stages {
		label := (&model.StageInfo{Name: st.DisplayName(), Index: i}).Label()
		metric := msr.GetMetric(label)
		if metric == nil {
			continue
		}

		line := fmt.Sprintf("  %-28s %s", label, metric.AVGDuration())
		if tiles := metric.TileCount(); tiles > 0 {
			line += faint(fmt.Sprintf("  %d tiles, avg %s", tiles, metric.AVGTileDuration()))
		}
		fmt.Fprintln(w, line)
	}
}
