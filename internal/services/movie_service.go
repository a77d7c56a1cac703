// Package services – MovieService
//
// MovieService answers movie lookups against TMDb and serves the weekly
// new-release snapshot written by the ingestion pipeline.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/repo"
	"github.com/tbourn/go-movie-catalog/internal/tmdb"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SearchResult holds either title matches or a single movie's details.
type SearchResult struct {
	// Query is "title" or "id".
	Query   string        `json:"query"`
	Matches []tmdb.Result `json:"matches,omitempty"`
	Movie   *tmdb.Details `json:"movie,omitempty"`
}

// ReleaseWeeks is the new-release snapshot grouped by week label. Weeks are
// listed in the order they first appear in the scraped listing.
type ReleaseWeeks struct {
	Weeks    []string                       `json:"weeks"`
	Releases map[string][]domain.NewRelease `json:"releases"`
}

// MovieService provides movie search and new-release reads.
type MovieService struct {
	DB       *gorm.DB
	Provider tmdb.Provider
}

// NewMovieService constructs a MovieService. provider may be nil when TMDb is
// not configured; searches then fail with ErrUpstream.
func NewMovieService(db *gorm.DB, provider tmdb.Provider) *MovieService {
	return &MovieService{DB: db, Provider: provider}
}

// Search looks a movie up by title or by TMDb id. Exactly one of the two must
// be given.
func (s *MovieService) Search(ctx context.Context, title, id string) (*SearchResult, error) {
	title, id = strings.TrimSpace(title), strings.TrimSpace(id)
	if (title == "") == (id == "") {
		return nil, ErrSearchParams
	}
	if s.Provider == nil {
		return nil, fmt.Errorf("%w: tmdb is not configured", ErrUpstream)
	}

	tr := otel.Tracer("services/MovieService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("search.title", title),
			attribute.String("search.id", id),
		),
	)
	defer span.End()

	if title != "" {
		resp, err := s.Provider.SearchMovie(ctx, title)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		return &SearchResult{Query: "title", Matches: resp.Results}, nil
	}

	movieID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || movieID <= 0 {
		return nil, fmt.Errorf("%w: id must be a positive integer", ErrSearchParams)
	}
	d, err := s.Provider.MovieDetails(ctx, movieID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return &SearchResult{Query: "id", Movie: d}, nil
}

// NewReleases returns the current snapshot grouped by release week.
func (s *MovieService) NewReleases(ctx context.Context) (*ReleaseWeeks, error) {
	rows, err := repo.ListNewReleases(ctx, s.DB)
	if err != nil {
		return nil, stepErr(StepListEntries, err)
	}
	out := &ReleaseWeeks{
		Weeks:    []string{},
		Releases: map[string][]domain.NewRelease{},
	}
	for _, r := range rows {
		if _, seen := out.Releases[r.ReleaseWeek]; !seen {
			out.Weeks = append(out.Weeks, r.ReleaseWeek)
		}
		out.Releases[r.ReleaseWeek] = append(out.Releases[r.ReleaseWeek], r)
	}
	return out, nil
}
