package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-movie-catalog/internal/ingest"
)

func newIngestCommand(app *appContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Scrape this week's releases, enrich them from TMDb and replace the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := runIngest(ctx, app)
			if err != nil && !errors.Is(err, ingest.ErrNothingScraped) {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON || !isTerminal(out) {
				if werr := writeJSON(out, report); werr != nil {
					return werr
				}
			} else {
				renderReport(out, report)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON even on a terminal")
	return cmd
}

func runIngest(ctx context.Context, app *appContext) (ingest.Report, error) {
	db, err := openStore(app.cfg)
	if err != nil {
		return ingest.Report{}, err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	provider, err := newProvider(app.cfg.TMDB)
	if err != nil {
		return ingest.Report{}, err
	}
	p, err := newPipeline(app.cfg, db, provider)
	if err != nil {
		return ingest.Report{}, err
	}
	return p.Run(ctx)
}
