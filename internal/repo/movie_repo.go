// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Movie
// registry table.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only persistence
// and query composition.
//
// Error semantics:
//   - When a movie is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// FindMovieByTMDbID fetches the movie registered under tmdbID, or ErrNotFound.
func FindMovieByTMDbID(ctx context.Context, db *gorm.DB, tmdbID int64) (*domain.Movie, error) {
	var m domain.Movie
	err := db.WithContext(ctx).
		Where("tmdb_id = ?", tmdbID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMovie inserts m and fills in its surrogate ID. A duplicate tmdb_id
// surfaces as the driver's unique-constraint error.
func CreateMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(m).Error
}

// CountMovies returns the number of registered movies.
func CountMovies(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Movie{}).Count(&n).Error
	return n, err
}
