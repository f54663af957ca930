// Package cli implements the fuzzysuggest command line.
package cli

import (
	"github.com/spf13/cobra"
)

type globalFlags struct {
	env        string
	configPath string
	driver     string
	namespace  string
	logLevel   string
}

// NewRootCmd returns the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "fuzzysuggest",
		Short:         "Fuzzy autocomplete over a search catalog",
		Long:          "fuzzysuggest provisions a trigram + completion namespace, loads records into it and answers typo-tolerant autocomplete queries.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.env, "env", "", "Environment name selecting config/<env>.yaml (default: $ENV or local)")
	pf.StringVarP(&g.configPath, "config", "c", "", "Path to a config file (overrides --env)")
	pf.StringVar(&g.driver, "driver", "", "Catalog driver override: elastic, redis or memory")
	pf.StringVarP(&g.namespace, "namespace", "n", "", "Namespace override")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level override: debug, info, warn, error")

	root.AddCommand(
		serveCmd(g),
		provisionCmd(g),
		ingestCmd(g),
		suggestCmd(g),
		demoCmd(g),
		versionCmd(),
	)
	return root
}
