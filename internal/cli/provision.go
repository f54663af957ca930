package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func provisionCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Recreate the namespace",
		Long:  "Delete the configured namespace if it exists, create it with the trigram and completion schema and wait until it accepts queries.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.close()

			rep, err := a.provisioner().Install(cmd.Context(), a.schema)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "namespace %s ready in %s (previous: %s)\n",
				rep.Namespace, rep.Duration.Round(time.Millisecond), rep.Delete.Status)
			return nil
		},
	}
}
