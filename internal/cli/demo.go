package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/fuzzysuggest/internal/report"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/demo"
)

func demoCmd(g *globalFlags) *cobra.Command {
	var (
		out    string
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the end-to-end demo and write a Markdown report",
		Long: `Recreate the namespace, load the demo cities, run the query tables and write a Markdown report.
Use --driver memory to run without a catalog server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.close()

			ing, err := a.ingestor()
			if err != nil {
				return err
			}
			defer ing.Release()

			svc := demo.New(a.provisioner(), ing, a.suggester(), a.schema, a.logger)
			rep := report.New(out)
			if err := svc.Run(cmd.Context(), rep); err != nil {
				return err
			}

			if stdout {
				_, err := rep.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := rep.WriteFile(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", rep.Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "demo.md", "Report path")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the report instead of writing a file")
	return cmd
}
