// Command moviecatalog runs the movie catalog API and its release ingestion.
//
//	moviecatalog serve     # HTTP API plus the scheduled ingestion job
//	moviecatalog ingest    # one ingestion run, then exit
//	moviecatalog migrate   # create or update the schema
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
