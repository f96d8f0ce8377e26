// Package cli implements the imgchain command line tool.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/askiada/go-imgchain/pkg/stage"
)

type Option func(o *options)

type options struct {
	version  string
	backends stage.Backends
}

// WithVersion sets the version printed by --version.
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithBackends provides the model backends used by the model stages. Without them those stages
// fail with stage.ErrBackendUnavailable.
func WithBackends(backends stage.Backends) Option {
	return func(o *options) {
		o.backends = backends
	}
}

// NewRootCommand builds the imgchain command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	o := &options{version: "dev"}
	for _, opt := range opts {
		opt(o)
	}

	root := &cobra.Command{
		Use:   "imgchain",
		Short: "imgchain runs chains of image stages",
		Long: `imgchain runs an image through the chain of stages described by a YAML chain file.

Stages larger than their tile size are split into tiles and reassembled. Environment
variables prefixed with IMGCHAIN_, or set in a .env file, override the chain file.`,
		Version:       o.version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCommand(o))
	root.AddCommand(newGraphCommand(o))
	root.AddCommand(newStagesCommand(o))

	return root
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, args []string, opts ...Option) error {
	root := NewRootCommand(opts...)
	root.SetArgs(args)

	return root.ExecuteContext(ctx)
}
