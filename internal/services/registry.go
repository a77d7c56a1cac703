// Package services – Registry
//
// Registry resolves an external movie reference to the surrogate id of the
// single shared movies row, creating it on first use. It always runs on the
// caller's transaction handle so resolution and the entry write that follows
// commit or roll back together.
package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MovieRef is the client-supplied description of a movie.
type MovieRef struct {
	TMDbID      int64  `json:"tmdb_id"`
	IMDbID      string `json:"imdb_id"`
	Title       string `json:"title"`
	Poster      string `json:"poster"`
	ReleaseDate string `json:"release_date"`
}

// normalize trims every text field.
func (r MovieRef) normalize() MovieRef {
	r.IMDbID = strings.TrimSpace(r.IMDbID)
	r.Title = strings.TrimSpace(r.Title)
	r.Poster = strings.TrimSpace(r.Poster)
	r.ReleaseDate = strings.TrimSpace(r.ReleaseDate)
	return r
}

// complete reports whether r carries enough metadata to register a new row.
func (r MovieRef) complete() bool {
	return r.Title != "" && r.Poster != "" && (r.IMDbID != "" || r.ReleaseDate != "")
}

// Registry finds or creates movie rows keyed by TMDb id.
type Registry struct{}

// FindOrCreate returns the id of the movie registered under ref.TMDbID,
// inserting it when absent. created is true only when this call inserted it.
//
// A unique violation on insert means a concurrent caller registered the same
// movie first; the winner's row is looked up and returned.
func (Registry) FindOrCreate(ctx context.Context, tx *gorm.DB, ref MovieRef) (movieID uint, created bool, err error) {
	tr := otel.Tracer("services/Registry")
	ctx, span := tr.Start(ctx, "FindOrCreate",
		trace.WithAttributes(attribute.Int64("movie.tmdb_id", ref.TMDbID)),
	)
	defer span.End()

	if ref.TMDbID <= 0 {
		return 0, false, ErrMissingTMDbID
	}
	ref = ref.normalize()

	m, err := repo.FindMovieByTMDbID(ctx, tx, ref.TMDbID)
	switch {
	case err == nil:
		return m.ID, false, nil
	case !isNotFound(err):
		span.RecordError(err)
		return 0, false, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	if !ref.complete() {
		return 0, false, ErrIncompleteMovie
	}

	row := &domain.Movie{
		TMDbID:      ref.TMDbID,
		IMDbID:      ref.IMDbID,
		Title:       ref.Title,
		Poster:      ref.Poster,
		ReleaseDate: ref.ReleaseDate,
	}
	if err := repo.CreateMovie(ctx, tx, row); err != nil {
		if isDuplicate(err) {
			winner, lerr := repo.FindMovieByTMDbID(ctx, tx, ref.TMDbID)
			if lerr == nil {
				return winner.ID, false, nil
			}
			err = lerr
		}
		span.RecordError(err)
		return 0, false, fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}
	return row.ID, true, nil
}

// FindByTMDbID returns the registered movie, or ErrMovieNotFound.
func (Registry) FindByTMDbID(ctx context.Context, tx *gorm.DB, tmdbID int64) (*domain.Movie, error) {
	if tmdbID <= 0 {
		return nil, ErrMissingTMDbID
	}
	m, err := repo.FindMovieByTMDbID(ctx, tx, tmdbID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	return m, nil
}
