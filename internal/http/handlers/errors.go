// Package handlers defines the response codes used across all API endpoints.
//
// Transport codes accompany a non-200 HTTP status in an ErrorResponse.
// Business codes accompany an Envelope and mirror services.Kind, so clients
// can branch on them without parsing messages.
//
// Conventions:
//   - Codes are lowercase snake_case and stable across releases.
//   - Messages are human-readable and may change.

package handlers

import (
	"errors"

	"github.com/tbourn/go-movie-catalog/internal/services"
)

// Transport codes.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
)

// Business codes.
const (
	CodeOK                    = "ok"
	ErrCodeValidation         = "validation_failed"
	ErrCodeNotLoggedIn        = "not_logged_in"
	ErrCodeConflict           = "conflict"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeStore              = "store_failed"
	ErrCodeUpstream           = "upstream_failed"
)

func codeFor(k services.Kind) string {
	switch k {
	case services.KindValidation:
		return ErrCodeValidation
	case services.KindNotFound:
		return ErrCodeNotFound
	case services.KindConflict:
		return ErrCodeConflict
	case services.KindUnauthorized:
		return ErrCodeInvalidCredentials
	case services.KindUpstream:
		return ErrCodeUpstream
	default:
		return ErrCodeStore
	}
}

// messages maps service sentinels to client-facing text.
var messages = []struct {
	err error
	msg string
}{
	{services.ErrMissingTMDbID, "Missing parameter: tmdb_id"},
	{services.ErrIncompleteMovie, "Missing parameter(s): imdb_id, tmdb_id, title, poster, and/or release_date."},
	{services.ErrMovieNotFound, "No match for movie found."},
	{services.ErrInvalidCopies, "Copies must be a positive integer."},
	{services.ErrAlreadyCataloged, "Movie is already in user's catalog."},
	{services.ErrAlreadyOwned, "Movie is in user's catalog."},
	{services.ErrAlreadyWished, "Movie has already been wished for user."},
	{services.ErrNotInWishList, "Movie is not in user's wish list."},
	{services.ErrInvalidUsername, "Invalid/Missing username."},
	{services.ErrInvalidPassword, "Invalid/Missing password."},
	{services.ErrInvalidEmail, "Invalid/Missing email address."},
	{services.ErrInvalidFirstName, "Invalid/Missing first name."},
	{services.ErrInvalidLastName, "Invalid/Missing last name."},
	{services.ErrUsernameTaken, "Username is taken."},
	{services.ErrUserNotFound, "No user with matching username found."},
	{services.ErrInvalidCredentials, "Invalid credentials"},
	{services.ErrNothingToUpdate, "Missing parameter(s): username, password, first_name, last_name, and/or email_address"},
	{services.ErrSearchParams, "You may search by title OR id"},
}

func messageFor(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Request could not be completed."
}
