package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Trigger route recomputation (InitializeRoutes)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var resp struct {
				LSAsInstalled int `json:"lsas_installed"`
			}

			if err := apiPost("/v1/routes/compute", nil, &resp); err != nil {
				return err
			}

			fmt.Printf("Route computation complete: %d LSAs installed.\n", resp.LSAsInstalled)
			return nil
		},
	}
}
