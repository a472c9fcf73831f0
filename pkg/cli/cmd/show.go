package cmd

import (
	"fmt"

	"github.com/rzbill/gcu/pkg/types"
	"github.com/rzbill/gcu/pkg/utils"
	"github.com/spf13/cobra"
)

func newShowConfigCmd(root *rootOptions) *cobra.Command {
	var (
		formatName string
		namespace  string
	)
	cmd := &cobra.Command{
		Use:   "show-config",
		Short: "Print the running config",
		Long: `Print the running config as JSON. With several namespaces and no --namespace,
the output is keyed by namespace name. In the sonic-yang format only the tables
a YANG model describes are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := types.ParseConfigFormat(formatName)
			if err != nil {
				return err
			}
			return root.withUpdater(cmd, false, func(u Updater) error {
				doc, err := u.ShowConfig(cmd.Context(), namespace, cf)
				if err != nil {
					return err
				}
				data, err := utils.IndentJSON(doc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "configdb", "output format: configdb or sonic-yang")
	cmd.Flags().StringVarP(&namespace, "namespace", "s", "", "namespace to print (localhost or asicN)")
	return cmd
}
