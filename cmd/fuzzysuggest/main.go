package main

import (
	"fmt"
	"os"

	"github.com/kailas-cloud/fuzzysuggest/internal/cli"
)

func main() {
	root := cli.NewRootCmd()

	// Bare invocation runs the server, like the container entrypoint expects.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
