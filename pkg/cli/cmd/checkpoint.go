package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/rzbill/gcu/pkg/cli/format"
	"github.com/rzbill/gcu/pkg/utils"
	"github.com/spf13/cobra"
)

func newCheckpointCmd(root *rootOptions) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "checkpoint CHECKPOINT_NAME",
		Short: "Save the current config as a checkpoint",
		Long:  `Save the current config of every namespace under a name. An existing checkpoint of the same name is overwritten.`,
		Args:  requireArg("CHECKPOINT_NAME"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withUpdater(cmd, verbose, func(u Updater) error {
				if err := u.Checkpoint(cmd.Context(), args[0], verbose); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), format.Success("Checkpoint created successfully."))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
	return cmd
}

func newDeleteCheckpointCmd(root *rootOptions) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "delete-checkpoint CHECKPOINT_NAME",
		Short: "Delete a checkpoint",
		Args:  requireArg("CHECKPOINT_NAME"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withUpdater(cmd, verbose, func(u Updater) error {
				if err := u.DeleteCheckpoint(cmd.Context(), args[0], verbose); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), format.Success("Checkpoint deleted successfully."))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
	return cmd
}

func newListCheckpointsCmd(root *rootOptions) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "list-checkpoints",
		Short: "List the checkpoints as a JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withUpdater(cmd, verbose, func(u Updater) error {
				names, err := u.ListCheckpoints(cmd.Context(), verbose)
				if err != nil {
					return err
				}
				var data []byte
				if verbose {
					data, err = utils.IndentJSON(names)
				} else {
					data, err = json.Marshal(names)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "indent the output and print debug logs")
	return cmd
}
