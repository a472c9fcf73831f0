package cmd

import (
	"fmt"

	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/schema"
	"github.com/rzbill/gcu/pkg/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var yangDir string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the gcu version information",
		Long: `Display the build of the gcu binary. With --yang-dir, also list the YANG
modules in that directory and their revisions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
			if yangDir == "" {
				return nil
			}
			s, err := schema.LoadDir(yangDir, log.GetDefaultLogger())
			if err != nil {
				return fmt.Errorf("failed to load YANG models: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), version.Models(yangDir, s.Revisions()))
			return nil
		},
	}
	cmd.Flags().StringVar(&yangDir, "yang-dir", "", "also list the YANG modules in this directory")
	return cmd
}
