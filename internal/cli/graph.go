package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/askiada/go-imgchain/pkg/pipeline"
	"github.com/askiada/go-imgchain/pkg/pipeline/drawer"
	"github.com/askiada/go-imgchain/pkg/stage"
)

// writerDrawer draws to a writer instead of a file.
type writerDrawer struct {
	*drawer.DOTDrawer
	w io.Writer
}

func (d writerDrawer) Draw() error {
	_, err := d.WriteTo(d.w)

	return err
}

type graphFlags struct {
	chainFlags
	output string
}

func newGraphCommand(o *options) *cobra.Command {
	flags := &graphFlags{}

	cmd := &cobra.Command{
		Use:     "graph",
		Short:   "Draw a chain as a DOT graph without running it",
		Example: `  imgchain graph --config chain.yaml --output chain.dot`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			chain, err := flags.load()
			if err != nil {
				return err
			}

			stages, err := chain.Build(stage.NewRegistry(nil, o.backends))
			if err != nil {
				return err
			}

			toStdout := flags.output == "" || flags.output == "-"

			var d drawer.Drawer = drawer.NewDOTDrawer(flags.output)
			if toStdout {
				d = writerDrawer{DOTDrawer: drawer.NewDOTDrawer(""), w: cmd.OutOrStdout()}
			}

			pipe, err := pipeline.New(stages, pipeline.WithObserver(drawer.PipelineDrawer(d, nil)))
			if err != nil {
				return err
			}
			err = pipe.Describe()
			if err != nil {
				return err
			}

			if !toStdout {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.New(color.FgGreen, color.Bold).Sprint("wrote"), flags.output)
			}

			return nil
		},
	}
	flags.chainFlags.addFlags(cmd.Flags())
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "DOT file, standard output when empty or -")

	return cmd
}

func newStagesCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List the stage types a chain file can use",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range stage.NewRegistry(nil, o.backends).Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
