package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes <node-id>",
		Short: "Show a node's forwarding table",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			nodeID := args[0]

			var routes []routeEntryView
			if err := apiGet("/v1/nodes/"+nodeID+"/routes", &routes); err != nil {
				return err
			}

			out, err := formatRoutes(routes, outputFormat)
			if err != nil {
				return err
			}

			fmt.Print(out)
			return nil
		},
	}
}
