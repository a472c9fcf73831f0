package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rzbill/gcu/pkg/cli/format"
	"github.com/rzbill/gcu/pkg/jsonpatch"
	"github.com/rzbill/gcu/pkg/types"
	"github.com/rzbill/gcu/pkg/updater"
	"github.com/rzbill/gcu/pkg/version"
	"github.com/spf13/cobra"
)

// Updater is what the commands drive. *updater.Updater implements it.
type Updater interface {
	ApplyPatch(ctx context.Context, patch jsonpatch.Patch, opts updater.Options) (*updater.Result, error)
	Replace(ctx context.Context, target any, opts updater.Options) (*updater.Result, error)
	Rollback(ctx context.Context, name string, opts updater.Options) (*updater.Result, error)
	Checkpoint(ctx context.Context, name string, verbose bool) error
	DeleteCheckpoint(ctx context.Context, name string, verbose bool) error
	ListCheckpoints(ctx context.Context, verbose bool) ([]string, error)
	ShowConfig(ctx context.Context, namespace string, format types.ConfigFormat) (any, error)
}

// Factory opens the updater for one command run. configFile is the value of
// --config. The returned close func releases what the updater holds.
type Factory func(ctx context.Context, configFile string, verbose bool) (Updater, func() error, error)

type rootOptions struct {
	configFile string
	factory    Factory
}

// NewRootCmd builds the gcu command tree.
func NewRootCmd(factory Factory) *cobra.Command {
	opts := &rootOptions{factory: factory}

	root := &cobra.Command{
		Use:   "gcu",
		Short: "Generic configuration updater",
		Long: `gcu applies JSON patches and full replacements to the device ConfigDB,
ordering the changes so that no table reference is ever broken, and keeps
named checkpoints to roll back to.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is /etc/gcu/gcu.yaml or $HOME/.gcu/gcu.yaml)")

	root.AddCommand(
		newApplyPatchCmd(opts),
		newReplaceCmd(opts),
		newRollbackCmd(opts),
		newCheckpointCmd(opts),
		newDeleteCheckpointCmd(opts),
		newListCheckpointsCmd(opts),
		newShowConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs root and prints any error to its error stream. It returns
// the process exit code.
func Execute(root *cobra.Command) int {
	executed, err := root.ExecuteC()
	if err == nil {
		return 0
	}
	details := false
	if executed != nil {
		if f := executed.Flags().Lookup("verbose"); f != nil {
			details = f.Value.String() == "true"
		}
	}
	width := format.DefaultWidth
	if f, ok := root.ErrOrStderr().(*os.File); ok {
		width = format.TerminalWidth(f)
	}
	format.WriteError(root.ErrOrStderr(), err, details, width)
	return 1
}

// withUpdater opens the updater, runs fn and closes it, keeping the first error.
func (o *rootOptions) withUpdater(cmd *cobra.Command, verbose bool, fn func(Updater) error) (err error) {
	if o.factory == nil {
		return errors.New("no updater configured")
	}
	u, closeFn, err := o.factory(cmd.Context(), o.configFile, verbose)
	if err != nil {
		return err
	}
	defer func() {
		if closeFn == nil {
			return
		}
		if cerr := closeFn(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close: %w", cerr)
		}
	}()
	return fn(u)
}

// requireArg fails with the usage error naming the missing positional argument.
func requireArg(name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		switch {
		case len(args) == 0:
			return fmt.Errorf("Missing argument %q", name)
		case len(args) > 1:
			return fmt.Errorf("Got unexpected extra argument (%s)", args[1])
		}
		return nil
	}
}
