package cmd

import (
	"fmt"
	"io"

	"github.com/rzbill/gcu/pkg/cli/format"
	"github.com/rzbill/gcu/pkg/jsonpatch"
	"github.com/rzbill/gcu/pkg/types"
	"github.com/rzbill/gcu/pkg/updater"
	"github.com/rzbill/gcu/pkg/utils"
	"github.com/spf13/cobra"
)

// updateFlags are the flags shared by apply-patch, replace and rollback.
type updateFlags struct {
	format         string
	dryRun         bool
	ignoreNonYang  bool
	ignorePaths    []string
	verbose        bool
	formatSelected bool
}

func (f *updateFlags) register(cmd *cobra.Command, withFormat bool) {
	flags := cmd.Flags()
	if withFormat {
		flags.StringVarP(&f.format, "format", "f", "configdb", "format of the input: configdb or sonic-yang")
		f.formatSelected = true
	}
	flags.BoolVarP(&f.dryRun, "dry-run", "d", false, "compute and validate the changes without committing them")
	flags.BoolVarP(&f.ignoreNonYang, "ignore-non-yang-tables", "n", false, "skip validation of tables no YANG model describes")
	flags.StringArrayVarP(&f.ignorePaths, "ignore-path", "i", nil, "JSON pointer of a config subtree to leave untouched (repeatable)")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "print the planned changes and debug logs")
}

func (f *updateFlags) options() (updater.Options, error) {
	opts := updater.Options{
		Format:                types.FormatConfigDB,
		Verbose:               f.verbose,
		DryRun:                f.dryRun,
		IgnoreNonSchemaTables: f.ignoreNonYang,
		IgnorePaths:           f.ignorePaths,
	}
	if f.formatSelected {
		cf, err := types.ParseConfigFormat(f.format)
		if err != nil {
			return opts, err
		}
		opts.Format = cf
	}
	return opts, nil
}

func newApplyPatchCmd(root *rootOptions) *cobra.Command {
	flags := &updateFlags{}
	cmd := &cobra.Command{
		Use:   "apply-patch PATCH_FILE_PATH",
		Short: "Apply a JSON patch to the config",
		Long: `Apply a JSON patch (RFC 6902 add, remove and replace operations) to the
config. The patch file is JSON, or YAML when its extension is .yaml or .yml.
With several namespaces, operations whose path starts with /localhost or
/asicN only apply to that namespace.`,
		Args: requireArg("PATCH_FILE_PATH"),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			doc, err := readInput("patch", args[0])
			if err != nil {
				return err
			}
			patch, err := jsonpatch.FromJSON(doc)
			if err != nil {
				return err
			}
			return root.withUpdater(cmd, flags.verbose, func(u Updater) error {
				result, err := u.ApplyPatch(cmd.Context(), patch, opts)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), result, flags.verbose, "Patch applied successfully.")
			})
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newReplaceCmd(root *rootOptions) *cobra.Command {
	flags := &updateFlags{}
	cmd := &cobra.Command{
		Use:   "replace TARGET_FILE_PATH",
		Short: "Replace the whole config",
		Long: `Replace the whole config with the content of a file. With several
namespaces, a target keyed by namespace names (localhost, asicN) gives each
namespace its own config.`,
		Args: requireArg("TARGET_FILE_PATH"),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			target, err := readInput("target", args[0])
			if err != nil {
				return err
			}
			return root.withUpdater(cmd, flags.verbose, func(u Updater) error {
				result, err := u.Replace(cmd.Context(), target, opts)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), result, flags.verbose, "Config replaced successfully.")
			})
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newRollbackCmd(root *rootOptions) *cobra.Command {
	flags := &updateFlags{}
	cmd := &cobra.Command{
		Use:   "rollback CHECKPOINT_NAME",
		Short: "Roll the config back to a checkpoint",
		Args:  requireArg("CHECKPOINT_NAME"),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			return root.withUpdater(cmd, flags.verbose, func(u Updater) error {
				result, err := u.Rollback(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), result, flags.verbose, "Config rolled back successfully.")
			})
		},
	}
	flags.register(cmd, false)
	return cmd
}

func readInput(kind, path string) (any, error) {
	doc, err := utils.ReadStructuredFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file %s: %w", kind, path, err)
	}
	return doc, nil
}

// printResult lists the changes when verbose, the candidate config on a dry
// run, then the success message.
func printResult(w io.Writer, result *updater.Result, verbose bool, success string) error {
	if verbose {
		for _, ns := range result.Namespaces {
			fmt.Fprintf(w, "%s: %d change(s)\n", format.Highlight("%s", types.NamespaceName(ns.Namespace)), len(ns.Changes))
			for _, c := range ns.Changes {
				fmt.Fprintf(w, "  %s %s\n", format.ChangeLabel(string(c.Op)), c.Path())
			}
		}
	}
	if result.DryRun {
		data, err := utils.IndentJSON(result.Candidates())
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		fmt.Fprintln(w, format.Warning("Dry run, nothing was committed."))
	}
	fmt.Fprintln(w, format.Success("%s", success))
	return nil
}
