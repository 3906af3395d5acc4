package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func queueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue <node-id> <device>",
		Short: "Show a device's queue depth and link state",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			nodeID, deviceName := args[0], args[1]

			var node nodeView
			if err := apiGet("/v1/nodes/"+nodeID, &node); err != nil {
				return err
			}

			for _, dev := range node.Devices {
				if dev.Name != deviceName {
					continue
				}

				out, err := formatDevice(dev, outputFormat)
				if err != nil {
					return err
				}

				fmt.Print(out)
				return nil
			}

			return fmt.Errorf("device %q not found on node %q", deviceName, nodeID)
		},
	}
}
