// Package services defines the business logic for the movie registry, the
// catalog/wish-list workflow, user accounts, and movie lookups. This file
// centralizes the service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP results is performed at the
// handler layer, driven by Kind.
package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/repo"
)

// Kind classifies a service error for the transport layer.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindStore        Kind = "store"
	KindUpstream     Kind = "upstream"
)

// Registry errors.
var (
	// ErrMissingTMDbID is returned when a movie reference carries no external id.
	ErrMissingTMDbID = errors.New("missing tmdb id")

	// ErrIncompleteMovie is returned when a new movie lacks the metadata
	// required to register it.
	ErrIncompleteMovie = errors.New("incomplete movie metadata")

	// ErrLookupFailed wraps store failures while looking up a movie.
	ErrLookupFailed = errors.New("movie lookup failed")

	// ErrInsertFailed wraps store failures while registering a movie.
	ErrInsertFailed = errors.New("movie insert failed")

	// ErrMovieNotFound indicates no movie is registered under the given id.
	ErrMovieNotFound = errors.New("no match for movie found")
)

// Workflow errors.
var (
	ErrInvalidCopies    = errors.New("copies must be a positive integer")
	ErrAlreadyCataloged = errors.New("movie is already in user's catalog")
	ErrAlreadyOwned     = errors.New("movie is in user's catalog")
	ErrAlreadyWished    = errors.New("movie has already been wished for user")
	ErrNotInWishList    = errors.New("movie is not in user's wish list")
)

// User errors.
var (
	ErrInvalidUsername    = errors.New("invalid/missing username")
	ErrInvalidPassword    = errors.New("invalid/missing password")
	ErrInvalidEmail       = errors.New("invalid/missing email address")
	ErrInvalidFirstName   = errors.New("invalid/missing first name")
	ErrInvalidLastName    = errors.New("invalid/missing last name")
	ErrUsernameTaken      = errors.New("username is taken")
	ErrUserNotFound       = errors.New("no user with matching username found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNothingToUpdate    = errors.New("no updates were provided")
)

// Movie search errors.
var (
	// ErrSearchParams is returned unless exactly one of title or id is given.
	ErrSearchParams = errors.New("search by title OR id")

	// ErrUpstream wraps failures of the metadata provider.
	ErrUpstream = errors.New("metadata provider failed")
)

// Step names a unit of work inside a workflow operation.
type Step string

const (
	StepResolveMovie   Step = "resolve_movie"
	StepLoadState      Step = "load_state"
	StepDeleteWishList Step = "delete_wish_list"
	StepInsertCatalog  Step = "insert_catalog"
	StepInsertWishList Step = "insert_wish_list"
	StepDeleteCatalog  Step = "delete_catalog"
	StepUpdateCopies   Step = "update_copies"
	StepListEntries    Step = "list_entries"
	StepLoadUser       Step = "load_user"
)

// StepError reports which step of an operation failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

// stepErr wraps err in a StepError unless it is nil or already carries a step.
func stepErr(step Step, err error) error {
	if err == nil {
		return nil
	}
	var se *StepError
	if errors.As(err, &se) {
		return err
	}
	return &StepError{Step: step, Err: err}
}

// KindOf maps err to its Kind. Unknown errors are store failures.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingTMDbID),
		errors.Is(err, ErrIncompleteMovie),
		errors.Is(err, ErrInvalidCopies),
		errors.Is(err, ErrInvalidUsername),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrInvalidFirstName),
		errors.Is(err, ErrInvalidLastName),
		errors.Is(err, ErrNothingToUpdate),
		errors.Is(err, ErrSearchParams):
		return KindValidation
	case errors.Is(err, ErrMovieNotFound),
		errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyCataloged),
		errors.Is(err, ErrAlreadyOwned),
		errors.Is(err, ErrAlreadyWished),
		errors.Is(err, ErrNotInWishList),
		errors.Is(err, ErrUsernameTaken):
		return KindConflict
	case errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	default:
		return KindStore
	}
}

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way.
func isNotFound(err error) bool {
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// by inspecting the error string.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// MySQL typically: "Error 1062: Duplicate entry"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
