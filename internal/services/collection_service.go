// Package services – CollectionService
//
// CollectionService owns the catalog and wish-list workflow. For any
// (user, movie) pair the store holds at most one of a catalog entry or a
// wish-list entry, so every pair is in exactly one of three states:
// absent, wished for, or cataloged.
//
// Each public operation resolves the movie, reads the pair's state and writes
// inside a single transaction; a failure at any step rolls back the whole
// operation and is reported as a *StepError naming the step.
//
// Observability: mutating methods are OpenTelemetry-instrumented with user and
// movie identifiers.
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// State is the membership of a (user, movie) pair.
type State int

const (
	StateAbsent State = iota
	StateInWishList
	StateInCatalog
)

func (s State) String() string {
	switch s {
	case StateInWishList:
		return "in_wish_list"
	case StateInCatalog:
		return "in_catalog"
	default:
		return "absent"
	}
}

// MarshalText renders the state by name in JSON payloads.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "absent":
		*s = StateAbsent
	case "in_wish_list":
		*s = StateInWishList
	case "in_catalog":
		*s = StateInCatalog
	default:
		return fmt.Errorf("unknown state %q", b)
	}
	return nil
}

// AddResult reports the movie an add resolved to and the state observed
// before the write.
type AddResult struct {
	MovieID uint  `json:"movie_id"`
	Created bool  `json:"movie_created"`
	Prior   State `json:"prior_state"`
}

// CollectionService coordinates the catalog and wish-list stores.
type CollectionService struct {
	DB       *gorm.DB
	Registry Registry
}

// NewCollectionService constructs a CollectionService bound to db.
func NewCollectionService(db *gorm.DB) *CollectionService {
	return &CollectionService{DB: db}
}

func (s *CollectionService) span(ctx context.Context, name string, p domain.Principal, tmdbID int64) (context.Context, trace.Span) {
	return otel.Tracer("services/CollectionService").Start(ctx, name,
		trace.WithAttributes(
			attribute.Int64("user.id", int64(p.UserID)),
			attribute.Int64("movie.tmdb_id", tmdbID),
		),
	)
}

// AddToCatalog records that p owns copies copies of ref. A zero copy count
// means one copy. A wished-for movie is moved off the wish list in the same
// transaction.
func (s *CollectionService) AddToCatalog(ctx context.Context, p domain.Principal, ref MovieRef, copies int) (AddResult, error) {
	ctx, span := s.span(ctx, "AddToCatalog", p, ref.TMDbID)
	defer span.End()

	if copies == 0 {
		copies = 1
	}
	if copies < 0 {
		return AddResult{}, ErrInvalidCopies
	}

	var res AddResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		movieID, created, err := s.Registry.FindOrCreate(ctx, tx, ref)
		if err != nil {
			return stepErr(StepResolveMovie, err)
		}
		res.MovieID, res.Created = movieID, created

		st, err := state(ctx, tx, p.UserID, movieID)
		if err != nil {
			return stepErr(StepLoadState, err)
		}
		res.Prior = st

		switch st {
		case StateInCatalog:
			return ErrAlreadyCataloged
		case StateInWishList:
			if _, err := repo.DeleteWishListEntry(ctx, tx, p.UserID, movieID); err != nil {
				return stepErr(StepDeleteWishList, err)
			}
		}
		if err := repo.InsertCatalogEntry(ctx, tx, p.UserID, movieID, copies); err != nil {
			return stepErr(StepInsertCatalog, err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return res, err
	}
	return res, nil
}

// AddToWishList records that p wants ref. Owned or already wished-for movies
// are rejected.
func (s *CollectionService) AddToWishList(ctx context.Context, p domain.Principal, ref MovieRef) (AddResult, error) {
	ctx, span := s.span(ctx, "AddToWishList", p, ref.TMDbID)
	defer span.End()

	var res AddResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		movieID, created, err := s.Registry.FindOrCreate(ctx, tx, ref)
		if err != nil {
			return stepErr(StepResolveMovie, err)
		}
		res.MovieID, res.Created = movieID, created

		st, err := state(ctx, tx, p.UserID, movieID)
		if err != nil {
			return stepErr(StepLoadState, err)
		}
		res.Prior = st

		switch st {
		case StateInCatalog:
			return ErrAlreadyOwned
		case StateInWishList:
			return ErrAlreadyWished
		}
		if err := repo.InsertWishListEntry(ctx, tx, p.UserID, movieID); err != nil {
			return stepErr(StepInsertWishList, err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return res, err
}

// RemoveFromCatalog deletes p's catalog entry for tmdbID. Removing a movie
// that is registered but not cataloged succeeds without effect.
func (s *CollectionService) RemoveFromCatalog(ctx context.Context, p domain.Principal, tmdbID int64) error {
	ctx, span := s.span(ctx, "RemoveFromCatalog", p, tmdbID)
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.Registry.FindByTMDbID(ctx, tx, tmdbID)
		if err != nil {
			return stepErr(StepResolveMovie, err)
		}
		if _, err := repo.DeleteCatalogEntry(ctx, tx, p.UserID, m.ID); err != nil {
			return stepErr(StepDeleteCatalog, err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// RemoveFromWishList deletes p's wish-list entry for tmdbID, failing with
// ErrNotInWishList when there is none.
func (s *CollectionService) RemoveFromWishList(ctx context.Context, p domain.Principal, tmdbID int64) error {
	ctx, span := s.span(ctx, "RemoveFromWishList", p, tmdbID)
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.Registry.FindByTMDbID(ctx, tx, tmdbID)
		if err != nil {
			return stepErr(StepResolveMovie, err)
		}
		st, err := state(ctx, tx, p.UserID, m.ID)
		if err != nil {
			return stepErr(StepLoadState, err)
		}
		if st != StateInWishList {
			return ErrNotInWishList
		}
		if _, err := repo.DeleteWishListEntry(ctx, tx, p.UserID, m.ID); err != nil {
			return stepErr(StepDeleteWishList, err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// UpdateCopyCount sets the number of copies p owns of tmdbID. copies must be
// positive. Updating a movie that is registered but not cataloged succeeds
// without effect.
func (s *CollectionService) UpdateCopyCount(ctx context.Context, p domain.Principal, tmdbID int64, copies int) error {
	if copies <= 0 {
		return ErrInvalidCopies
	}

	ctx, span := s.span(ctx, "UpdateCopyCount", p, tmdbID)
	defer span.End()
	span.SetAttributes(attribute.Int("catalog.copies", copies))

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.Registry.FindByTMDbID(ctx, tx, tmdbID)
		if err != nil {
			return stepErr(StepResolveMovie, err)
		}
		if _, err := repo.UpdateCatalogCopies(ctx, tx, p.UserID, m.ID, copies); err != nil {
			return stepErr(StepUpdateCopies, err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// State returns the membership of (userID, movieID).
func (s *CollectionService) State(ctx context.Context, userID, movieID uint) (State, error) {
	return state(ctx, s.DB, userID, movieID)
}

// Catalog lists userID's catalog. Any user's catalog may be read; an unknown
// user yields ErrUserNotFound.
func (s *CollectionService) Catalog(ctx context.Context, userID uint) ([]domain.CollectionItem, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	items, err := repo.ListCatalog(ctx, s.DB, userID)
	if err != nil {
		return nil, stepErr(StepListEntries, err)
	}
	return items, nil
}

// WishList lists userID's wish list.
func (s *CollectionService) WishList(ctx context.Context, userID uint) ([]domain.CollectionItem, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	items, err := repo.ListWishList(ctx, s.DB, userID)
	if err != nil {
		return nil, stepErr(StepListEntries, err)
	}
	return items, nil
}

// CatalogVersion returns a weak validator for userID's catalog listing that
// changes whenever an entry is added, removed or updated.
func (s *CollectionService) CatalogVersion(ctx context.Context, userID uint) (string, error) {
	count, copies, maxTS, err := repo.CatalogStats(ctx, s.DB, userID)
	if err != nil {
		return "", err
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	return fmt.Sprintf("catalog:%d:%d:%d:%d", userID, count, copies, ts), nil
}

// WishListVersion is the wish-list counterpart of CatalogVersion.
func (s *CollectionService) WishListVersion(ctx context.Context, userID uint) (string, error) {
	count, maxTS, err := repo.WishListStats(ctx, s.DB, userID)
	if err != nil {
		return "", err
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	return fmt.Sprintf("wish-list:%d:%d:%d", userID, count, ts), nil
}

func (s *CollectionService) ensureUser(ctx context.Context, userID uint) error {
	if _, err := repo.GetUserByID(ctx, s.DB, userID); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return stepErr(StepLoadUser, err)
	}
	return nil
}

// state derives the pair's membership from the two stores.
func state(ctx context.Context, db *gorm.DB, userID, movieID uint) (State, error) {
	inCatalog, err := repo.CatalogExists(ctx, db, userID, movieID)
	if err != nil {
		return StateAbsent, err
	}
	if inCatalog {
		return StateInCatalog, nil
	}
	wished, err := repo.WishListExists(ctx, db, userID, movieID)
	if err != nil {
		return StateAbsent, err
	}
	if wished {
		return StateInWishList, nil
	}
	return StateAbsent, nil
}
