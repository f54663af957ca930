package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain/suggestion"
)

type suggestLine struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
	NoResults   bool     `json:"no_results"`
}

func suggestCmd(g *globalFlags) *cobra.Command {
	var (
		asJSON bool
		stdin  bool
	)

	cmd := &cobra.Command{
		Use:   "suggest [query...]",
		Short: "Run autocomplete queries",
		Long: `Run each query through the fuzzy match + completion request and print the merged suggestions.
With --stdin, every input line is a keystroke of one typing session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !stdin {
				return fmt.Errorf("no queries given: pass queries or --stdin")
			}

			a, err := newApp(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.close()

			session := a.suggester().NewSession()
			defer session.Close()

			out := cmd.OutOrStdout()
			run := func(q string) error {
				list, err := session.Suggest(cmd.Context(), q)
				if err != nil {
					return fmt.Errorf("suggest %q: %w", q, err)
				}
				return printSuggestions(out, q, list, asJSON)
			}

			for _, q := range args {
				if err := run(q); err != nil {
					return err
				}
			}
			if stdin {
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					if err := run(strings.TrimRight(sc.Text(), "\r")); err != nil {
						return err
					}
				}
				return sc.Err()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per query")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "Read queries from stdin, one per line")
	return cmd
}

func printSuggestions(w io.Writer, q string, list suggestion.List, asJSON bool) error {
	if asJSON {
		names := list.Names()
		if names == nil {
			names = []string{}
		}
		return json.NewEncoder(w).Encode(suggestLine{Query: q, Suggestions: names, NoResults: list.IsNoResults()})
	}
	_, err := fmt.Fprintf(w, "%s\t%s\n", q, list)
	return err
}
