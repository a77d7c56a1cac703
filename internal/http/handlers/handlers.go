package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movie-catalog/internal/auth"
	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/services"
)

//
// Service contracts (context-aware)
//

// UserService defines account operations consumed by HTTP handlers.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (domain.Principal, error)
	Login(ctx context.Context, username, password string) (domain.Principal, error)
	Update(ctx context.Context, p domain.Principal, in services.UpdateInput) (domain.Principal, error)
	Delete(ctx context.Context, p domain.Principal) error
}

// CollectionService defines catalog and wish-list operations.
type CollectionService interface {
	AddToCatalog(ctx context.Context, p domain.Principal, ref services.MovieRef, copies int) (services.AddResult, error)
	AddToWishList(ctx context.Context, p domain.Principal, ref services.MovieRef) (services.AddResult, error)
	RemoveFromCatalog(ctx context.Context, p domain.Principal, tmdbID int64) error
	RemoveFromWishList(ctx context.Context, p domain.Principal, tmdbID int64) error
	UpdateCopyCount(ctx context.Context, p domain.Principal, tmdbID int64, copies int) error
	Catalog(ctx context.Context, userID uint) ([]domain.CollectionItem, error)
	WishList(ctx context.Context, userID uint) ([]domain.CollectionItem, error)
	CatalogVersion(ctx context.Context, userID uint) (string, error)
	WishListVersion(ctx context.Context, userID uint) (string, error)
}

// MovieService defines movie lookups.
type MovieService interface {
	Search(ctx context.Context, title, id string) (*services.SearchResult, error)
	NewReleases(ctx context.Context) (*services.ReleaseWeeks, error)
}

// SessionIssuer starts and ends login sessions.
type SessionIssuer interface {
	Issue(c *gin.Context, p domain.Principal) error
	Clear(c *gin.Context)
}

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	users    UserService
	coll     CollectionService
	movies   MovieService
	sessions SessionIssuer
}

// New constructs and returns a Handlers instance bound to the given services.
func New(users UserService, coll CollectionService, movies MovieService, sessions SessionIssuer) *Handlers {
	return &Handlers{users: users, coll: coll, movies: movies, sessions: sessions}
}

// RequireLogin is the deny handler for routes that need a session.
func RequireLogin(msg string) gin.HandlerFunc {
	return auth.RequireUser(func(c *gin.Context) { refuse(c, ErrCodeNotLoggedIn, msg) })
}

// principal returns the logged-in user. Routes reaching it sit behind
// RequireLogin, so a missing principal only happens on misconfigured routes.
func principal(c *gin.Context) (domain.Principal, bool) {
	p, ok := auth.CurrentUser(c)
	if !ok {
		refuse(c, ErrCodeNotLoggedIn, "No user logged in.")
	}
	return p, ok
}
