// Package ingest refreshes the weekly new-release snapshot.
//
// A run scrapes the release listing, replaces the snapshot table and then
// enriches every scraped title through TMDb concurrently. Scrape and truncate
// failures abort the run; per-title failures are recorded in the Report and
// never abort or roll back other titles.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/repo"
	"github.com/tbourn/go-movie-catalog/internal/scraper"
	"github.com/tbourn/go-movie-catalog/internal/tmdb"
)

var (
	ErrScrapeFailed   = errors.New("scrape failed")
	ErrNothingScraped = errors.New("scrape returned no releases")
	ErrTruncateFailed = errors.New("truncate new releases failed")
	ErrRunInProgress  = errors.New("ingestion already running")
)

// Outcome is the result of enriching one scraped title.
type Outcome string

const (
	OutcomeInserted     Outcome = "inserted"
	OutcomeNoMatch      Outcome = "no_match"
	OutcomeLookupFailed Outcome = "lookup_failed"
	OutcomeInsertFailed Outcome = "insert_failed"
)

// ItemResult records what happened to one scraped title. OK is true only
// when the title was inserted into the snapshot.
type ItemResult struct {
	IMDbID      string  `json:"imdb_id"`
	Title       string  `json:"title"`
	ReleaseWeek string  `json:"release_week"`
	TMDbID      int64   `json:"tmdb_id,omitempty"`
	OK          bool    `json:"ok"`
	Outcome     Outcome `json:"outcome"`
	Error       string  `json:"error,omitempty"`
}

// Report summarizes a completed run. Every scraped title lands in exactly one
// of Inserted, Skipped or Failed:
//
//   - Inserted: the title is in the snapshot (OK).
//   - Skipped: TMDb had no match, so the title was left out. This is an
//     expected outcome of a healthy run, not an error.
//   - Failed: the lookup or the insert returned an error.
//
// Skipped and Failed titles both have OK false; Unsuccessful counts them.
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Scraped   int           `json:"scraped"`
	Inserted  int           `json:"inserted"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Outcomes  []ItemResult  `json:"outcomes"`
}

// Unsuccessful is the number of scraped titles missing from the snapshot.
func (r Report) Unsuccessful() int { return r.Skipped + r.Failed }

// Scraper retrieves announced releases.
type Scraper interface {
	Scrape(ctx context.Context) ([]scraper.Announcement, error)
}

// Pipeline runs release ingestion. The zero value is not usable; set DB,
// Scraper and Provider.
type Pipeline struct {
	DB       *gorm.DB
	Scraper  Scraper
	Provider tmdb.Provider

	// ImageBaseURL prefixes TMDb poster paths.
	ImageBaseURL string
	// Concurrency bounds in-flight enrichments (default 8).
	Concurrency int
	// ScrapeTimeout and TaskTimeout bound the scrape and each enrichment.
	ScrapeTimeout time.Duration
	TaskTimeout   time.Duration
	// Lock, when set, excludes runs in other processes.
	Lock Locker

	running atomic.Bool
}

// Run executes one ingestion. A partially failed enrichment still returns a
// nil error; inspect the Report.
func (p *Pipeline) Run(ctx context.Context) (report Report, err error) {
	if !p.running.CompareAndSwap(false, true) {
		runsTotal.WithLabelValues("busy").Inc()
		return Report{}, ErrRunInProgress
	}
	defer p.running.Store(false)

	if p.Lock != nil {
		ok, err := p.Lock.TryLock()
		if err != nil {
			return Report{}, fmt.Errorf("acquire ingest lock: %w", err)
		}
		if !ok {
			runsTotal.WithLabelValues("busy").Inc()
			return Report{}, ErrRunInProgress
		}
		defer func() {
			if err := p.Lock.Unlock(); err != nil {
				log.Warn().Err(err).Msg("ingest: release lock")
			}
		}()
	}

	tr := otel.Tracer("ingest/Pipeline")
	ctx, span := tr.Start(ctx, "Run")
	defer span.End()

	report = Report{StartedAt: time.Now().UTC()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	announcements, err := p.scrape(ctx)
	if err != nil {
		runsTotal.WithLabelValues("scrape_failed").Inc()
		span.SetStatus(codes.Error, "scrape")
		span.RecordError(err)
		return report, fmt.Errorf("%w: %w", ErrScrapeFailed, err)
	}
	report.Scraped = len(announcements)
	span.SetAttributes(attribute.Int("ingest.scraped", report.Scraped))
	if len(announcements) == 0 {
		runsTotal.WithLabelValues("nothing_scraped").Inc()
		log.Warn().Msg("ingest: scrape returned nothing, snapshot left untouched")
		return report, ErrNothingScraped
	}

	if err := repo.TruncateNewReleases(ctx, p.DB); err != nil {
		runsTotal.WithLabelValues("truncate_failed").Inc()
		span.SetStatus(codes.Error, "truncate")
		span.RecordError(err)
		return report, fmt.Errorf("%w: %w", ErrTruncateFailed, err)
	}

	report.Outcomes = p.enrichAll(ctx, announcements)
	for _, o := range report.Outcomes {
		itemsTotal.WithLabelValues(string(o.Outcome)).Inc()
		switch o.Outcome {
		case OutcomeInserted:
			report.Inserted++
		case OutcomeNoMatch:
			report.Skipped++
		default:
			report.Failed++
		}
	}

	runsTotal.WithLabelValues("ok").Inc()
	runDuration.Observe(time.Since(report.StartedAt).Seconds())
	lastSuccess.SetToCurrentTime()
	span.SetAttributes(
		attribute.Int("ingest.inserted", report.Inserted),
		attribute.Int("ingest.failed", report.Failed),
	)
	log.Info().
		Int("scraped", report.Scraped).
		Int("inserted", report.Inserted).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("ingest: run complete")
	return report, nil
}

// Running reports whether a run is in progress in this process.
func (p *Pipeline) Running() bool { return p.running.Load() }

func (p *Pipeline) scrape(ctx context.Context) ([]scraper.Announcement, error) {
	if p.ScrapeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.ScrapeTimeout)
		defer cancel()
	}
	return p.Scraper.Scrape(ctx)
}

// enrichAll processes every announcement with bounded concurrency. Each task
// writes only its own slot and stamps its row with the listing index, so the
// snapshot keeps scrape order whatever order the lookups finish in.
func (p *Pipeline) enrichAll(ctx context.Context, announcements []scraper.Announcement) []ItemResult {
	limit := p.Concurrency
	if limit <= 0 {
		limit = 8
	}
	results := make([]ItemResult, len(announcements))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, a := range announcements {
		g.Go(func() error {
			results[i] = p.enrich(ctx, i, a)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) enrich(ctx context.Context, pos int, a scraper.Announcement) ItemResult {
	res := ItemResult{IMDbID: a.IMDbID, Title: a.Title, ReleaseWeek: a.ReleaseWeek}
	if p.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.TaskTimeout)
		defer cancel()
	}
	ctx, span := otel.Tracer("ingest/Pipeline").Start(ctx, "Enrich",
		trace.WithAttributes(attribute.String("imdb.id", a.IMDbID)),
	)
	defer span.End()

	found, err := p.Provider.FindByIMDbID(ctx, a.IMDbID)
	if err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Str("imdb_id", a.IMDbID).Msg("ingest: lookup failed")
		res.Outcome, res.Error = OutcomeLookupFailed, err.Error()
		return res
	}
	if found == nil || len(found.MovieResults) == 0 {
		log.Debug().Str("imdb_id", a.IMDbID).Str("title", a.Title).Msg("ingest: no tmdb match")
		res.Outcome = OutcomeNoMatch
		return res
	}

	match := found.MovieResults[0]
	poster := tmdb.PosterURL(p.ImageBaseURL, match.PosterPath)
	if poster == "" {
		poster = a.Poster
	}
	title := match.Title
	if title == "" {
		title = a.Title
	}
	rec := &domain.NewRelease{
		Position:    pos,
		IMDbID:      a.IMDbID,
		TMDbID:      match.ID,
		Title:       title,
		Poster:      poster,
		ReleaseWeek: a.ReleaseWeek,
	}
	res.TMDbID, res.Title = match.ID, title

	if err := repo.InsertNewRelease(ctx, p.DB, rec); err != nil {
		span.RecordError(err)
		log.Error().Err(err).Str("imdb_id", a.IMDbID).Msg("ingest: insert failed")
		res.Outcome, res.Error = OutcomeInsertFailed, err.Error()
		return res
	}
	res.OK, res.Outcome = true, OutcomeInserted
	return res
}
