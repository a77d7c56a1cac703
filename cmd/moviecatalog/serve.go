package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-movie-catalog/internal/auth"
	httpapi "github.com/tbourn/go-movie-catalog/internal/http"
	"github.com/tbourn/go-movie-catalog/internal/ingest"
	"github.com/tbourn/go-movie-catalog/internal/observability"
	"github.com/tbourn/go-movie-catalog/internal/supervisor"
	"github.com/tbourn/go-movie-catalog/internal/sysutil"
)

func newServeCommand(app *appContext) *cobra.Command {
	var port string
	var noIngest bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled release ingestion",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, app, sysutil.FirstNonEmpty(port, app.cfg.Port), !noIngest)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Override PORT")
	cmd.Flags().BoolVar(&noIngest, "no-ingest", false, "Do not schedule release ingestion in this process")
	return cmd
}

func serve(ctx context.Context, app *appContext, port string, withIngest bool) error {
	cfg := app.cfg

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	provider, err := newProvider(cfg.TMDB)
	if err != nil {
		return err
	}
	if provider == nil {
		log.Warn().Msg("TMDB_API_KEY not set: movie search and release ingestion are disabled")
	}

	jwt, err := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		Provider: provider,
		Sessions: auth.NewSessions(jwt, cfg.Auth.CookieName, cfg.Auth.SecureCookie),
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	tree := supervisor.NewTree("moviecatalog", supervisor.TreeConfig{ShutdownTimeout: cfg.ShutdownTimeout})
	tree.AddAPIService(supervisor.NewHTTPService(srv, cfg.ShutdownTimeout))

	if withIngest && provider != nil {
		p, err := newPipeline(cfg, db, provider)
		if err != nil {
			return err
		}
		tree.AddJobService(ingest.NewScheduler(p, cfg.Ingest.Interval, cfg.Ingest.RunOnStart))
	}

	log.Info().Str("addr", srv.Addr).Str("version", version).Str("db", cfg.DB.Driver).Msg("server starting")
	err = tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		log.Warn().Int("services", len(report)).Msg("services did not stop in time")
	}
	if ctx.Err() != nil {
		log.Info().Msg("server stopped")
		return nil
	}
	return err
}
