package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain/batch"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/demo"
)

func ingestCmd(g *globalFlags) *cobra.Command {
	var (
		file   string
		cities bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [name...]",
		Short: "Load records into the namespace",
		Long: `Store one record per name and wait until all of them are searchable.
Names come from the arguments, from --file (one per line, "-" for stdin) or from the built-in demo cities.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := append([]string(nil), args...)
			if file != "" {
				fromFile, err := readNames(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				names = append(names, fromFile...)
			}
			if cities {
				names = append(names, demo.Cities...)
			}
			if len(names) == 0 {
				return fmt.Errorf("no names given: pass names, --file or --cities")
			}

			a, err := newApp(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.close()

			svc, err := a.ingestor()
			if err != nil {
				return err
			}
			defer svc.Release()

			results, err := svc.Ingest(cmd.Context(), a.namespace(), names)
			out := cmd.OutOrStdout()
			for _, r := range results {
				if !r.OK() {
					fmt.Fprintf(out, "failed\t%q\t%v\n", r.Name(), r.Err())
				}
			}
			sum := batch.Summarize(results)
			fmt.Fprintf(out, "ingested %d, failed %d\n", sum.OK, sum.Failed)
			if err != nil {
				return err
			}
			if sum.Failed > 0 {
				return fmt.Errorf("%d records failed", sum.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `File with one name per line ("-" for stdin)`)
	cmd.Flags().BoolVar(&cities, "cities", false, "Also load the built-in demo cities")
	return cmd
}

// readNames returns the non-blank lines of path, or of stdin when path is "-".
func readNames(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("open names file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			names = append(names, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}
	return names, nil
}
