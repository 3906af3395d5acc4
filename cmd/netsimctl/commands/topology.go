package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func topologyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topology",
		Short: "List registered nodes and their devices",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var nodes []nodeView
			if err := apiGet("/v1/nodes", &nodes); err != nil {
				return err
			}

			out, err := formatNodes(nodes, outputFormat)
			if err != nil {
				return err
			}

			fmt.Print(out)
			return nil
		},
	}
}
