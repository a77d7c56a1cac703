package main

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/config"
	"github.com/tbourn/go-movie-catalog/internal/ingest"
	"github.com/tbourn/go-movie-catalog/internal/repo"
	"github.com/tbourn/go-movie-catalog/internal/scraper"
	"github.com/tbourn/go-movie-catalog/internal/tmdb"
)

// openStore connects to the configured database and migrates the schema.
func openStore(cfg config.Config) (*gorm.DB, error) {
	db, err := repo.Open(cfg.DB, cfg.OTEL.Enabled)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.DB.Driver, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// newProvider returns the breaker-wrapped TMDb client, or nil when no API
// key is configured.
func newProvider(cfg config.TMDBConfig) (tmdb.Provider, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	client, err := tmdb.New(cfg.APIKey, cfg.BaseURL, cfg.Language,
		tmdb.WithTimeout(cfg.Timeout),
		tmdb.WithRateLimit(cfg.RPS),
	)
	if err != nil {
		return nil, err
	}
	return tmdb.NewBreakerClient(client, tmdb.BreakerSettings{}), nil
}

// newPipeline assembles release ingestion against db and provider.
func newPipeline(cfg config.Config, db *gorm.DB, provider tmdb.Provider) (*ingest.Pipeline, error) {
	if provider == nil {
		return nil, fmt.Errorf("release ingestion needs TMDB_API_KEY")
	}
	sc, err := scraper.New(cfg.Scraper.URL,
		scraper.WithTimeout(cfg.Scraper.Timeout),
		scraper.WithUserAgent(cfg.Scraper.UserAgent),
	)
	if err != nil {
		return nil, err
	}
	return &ingest.Pipeline{
		DB:            db,
		Scraper:       sc,
		Provider:      provider,
		ImageBaseURL:  cfg.TMDB.ImageBaseURL,
		Concurrency:   cfg.Ingest.Concurrency,
		ScrapeTimeout: cfg.Scraper.Timeout,
		TaskTimeout:   cfg.TMDB.Timeout,
		Lock:          ingest.NewFileLock(cfg.Ingest.LockPath),
	}, nil
}
