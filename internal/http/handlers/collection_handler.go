// Catalog and wish-list HTTP handlers.
//
//   - GET    /catalog             (own catalog, ETag support)
//   - GET    /catalog/{userID}    (visit another user's catalog)
//   - POST   /catalog/add
//   - DELETE /catalog/remove
//   - PUT    /catalog/update
//   - GET    /wish-list           (ETag support)
//   - POST   /wish-list/add
//   - DELETE /wish-list/remove
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/services"
)

//
// DTOs
//

// AddToCatalogRequest describes the movie to catalog. Copies defaults to 1.
type AddToCatalogRequest struct {
	services.MovieRef
	Copies int `json:"copies" example:"2"`
}

// MovieIDRequest names a registered movie by TMDb id.
type MovieIDRequest struct {
	TMDbID int64 `json:"tmdb_id" example:"550"`
}

// UpdateCopiesRequest sets the copy count of a cataloged movie.
type UpdateCopiesRequest struct {
	TMDbID int64 `json:"tmdb_id" example:"550"`
	Copies int   `json:"copies" example:"3"`
}

// CollectionResponse is a user's catalog or wish list.
type CollectionResponse struct {
	UserID uint                    `json:"user_id"`
	Movies []domain.CollectionItem `json:"movies"`
}

// AddResponse reports the movie an add operation resolved to.
type AddResponse struct {
	MovieID uint           `json:"movie_id"`
	Prior   services.State `json:"prior_state" swaggertype:"string" example:"in_wish_list"`
}

//
// Helpers
//

// notModified sets a weak ETag from version and reports whether the client
// already holds it. Version failures only disable caching.
func notModified(c *gin.Context, version func(context.Context, uint) (string, error), userID uint) bool {
	v, err := version(c.Request.Context(), userID)
	if err != nil {
		return false
	}
	etag := `W/"` + v + `"`
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// bindMovieID decodes a MovieIDRequest and rejects a missing id.
func bindMovieID(c *gin.Context) (int64, bool) {
	var req MovieIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		refuse(c, ErrCodeBadRequest, "invalid JSON body")
		return 0, false
	}
	if req.TMDbID <= 0 {
		refuse(c, ErrCodeValidation, messageFor(services.ErrMissingTMDbID))
		return 0, false
	}
	return req.TMDbID, true
}

//
// Catalog
//

// GetCatalog godoc
// @ID          getCatalog
// @Summary     Own catalog
// @Description Lists the logged-in user's catalog. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Catalog
// @Produce     json
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.Envelope{data=handlers.CollectionResponse}
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Router      /catalog [get]
func (h *Handlers) GetCatalog(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if notModified(c, h.coll.CatalogVersion, p.UserID) {
		return
	}
	h.writeCatalog(c, p.UserID)
}

// VisitCatalog godoc
// @ID          visitCatalog
// @Summary     Another user's catalog
// @Description Public view of any user's catalog.
// @Tags        Catalog
// @Produce     json
// @Param       userID  path  int  true  "User ID"  minimum(1)
// @Success     200  {object}  handlers.Envelope{data=handlers.CollectionResponse}
// @Router      /catalog/{userID} [get]
func (h *Handlers) VisitCatalog(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil || id == 0 {
		refuse(c, ErrCodeValidation, "User id must be a positive integer.")
		return
	}
	if notModified(c, h.coll.CatalogVersion, uint(id)) {
		return
	}
	h.writeCatalog(c, uint(id))
}

func (h *Handlers) writeCatalog(c *gin.Context, userID uint) {
	items, err := h.coll.Catalog(c.Request.Context(), userID)
	if err != nil {
		refuseErr(c, err, "ERR: Could not retrieve a catalog.")
		return
	}
	reply(c, "Catalog successfully retrieved.", CollectionResponse{UserID: userID, Movies: items})
}

// AddToCatalog godoc
// @ID          addToCatalog
// @Summary     Add a movie to the catalog
// @Description Registers the movie if needed and catalogs it. A wished-for movie moves off the wish list.
// @Tags        Catalog
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.AddToCatalogRequest  true  "Movie and copies"
// @Success     200  {object}  handlers.Envelope{data=handlers.AddResponse}
// @Router      /catalog/add [post]
func (h *Handlers) AddToCatalog(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req AddToCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		refuse(c, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	res, err := h.coll.AddToCatalog(c.Request.Context(), p, req.MovieRef, req.Copies)
	if err != nil {
		refuseErr(c, err, "ERR: Adding movie to catalog.")
		return
	}
	reply(c, "Movie added to user's catalog.", AddResponse{MovieID: res.MovieID, Prior: res.Prior})
}

// RemoveFromCatalog godoc
// @ID          removeFromCatalog
// @Summary     Remove a movie from the catalog
// @Description Succeeds even when the movie was not cataloged.
// @Tags        Catalog
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.MovieIDRequest  true  "Movie"
// @Success     200  {object}  handlers.Envelope
// @Router      /catalog/remove [delete]
func (h *Handlers) RemoveFromCatalog(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	tmdbID, ok := bindMovieID(c)
	if !ok {
		return
	}
	if err := h.coll.RemoveFromCatalog(c.Request.Context(), p, tmdbID); err != nil {
		refuseErr(c, err, "ERR: Removing movie from catalog.")
		return
	}
	reply(c, "Movie removed from user's catalog.", nil)
}

// UpdateCopies godoc
// @ID          updateCopies
// @Summary     Set the copy count
// @Tags        Catalog
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.UpdateCopiesRequest  true  "Movie and copies"
// @Success     200  {object}  handlers.Envelope
// @Router      /catalog/update [put]
func (h *Handlers) UpdateCopies(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req UpdateCopiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		refuse(c, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.TMDbID <= 0 {
		refuse(c, ErrCodeValidation, messageFor(services.ErrMissingTMDbID))
		return
	}
	if err := h.coll.UpdateCopyCount(c.Request.Context(), p, req.TMDbID, req.Copies); err != nil {
		refuseErr(c, err, "ERR: Updating copies.")
		return
	}
	reply(c, "Copy count updated.", nil)
}

//
// Wish list
//

// GetWishList godoc
// @ID          getWishList
// @Summary     Own wish list
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        WishList
// @Produce     json
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.Envelope{data=handlers.CollectionResponse}
// @Success     304  {string}  string  "Not Modified"
// @Router      /wish-list [get]
func (h *Handlers) GetWishList(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if notModified(c, h.coll.WishListVersion, p.UserID) {
		return
	}
	items, err := h.coll.WishList(c.Request.Context(), p.UserID)
	if err != nil {
		refuseErr(c, err, "ERR: Could not retrieve a wish list.")
		return
	}
	reply(c, "Wish list successfully retrieved.", CollectionResponse{UserID: p.UserID, Movies: items})
}

// AddToWishList godoc
// @ID          addToWishList
// @Summary     Wish for a movie
// @Description Rejected when the movie is already owned or wished for.
// @Tags        WishList
// @Accept      json
// @Produce     json
// @Param       body  body  services.MovieRef  true  "Movie"
// @Success     200  {object}  handlers.Envelope{data=handlers.AddResponse}
// @Router      /wish-list/add [post]
func (h *Handlers) AddToWishList(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var ref services.MovieRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		refuse(c, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	res, err := h.coll.AddToWishList(c.Request.Context(), p, ref)
	if err != nil {
		refuseErr(c, err, "ERR: Adding movie to wish list")
		return
	}
	reply(c, "Movie wished for User.", AddResponse{MovieID: res.MovieID, Prior: res.Prior})
}

// RemoveFromWishList godoc
// @ID          removeFromWishList
// @Summary     Remove a movie from the wish list
// @Tags        WishList
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.MovieIDRequest  true  "Movie"
// @Success     200  {object}  handlers.Envelope
// @Router      /wish-list/remove [delete]
func (h *Handlers) RemoveFromWishList(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	tmdbID, ok := bindMovieID(c)
	if !ok {
		return
	}
	if err := h.coll.RemoveFromWishList(c.Request.Context(), p, tmdbID); err != nil {
		refuseErr(c, err, "ERR: Removing movie from wish list.")
		return
	}
	reply(c, "Movie removed from user's wish list.", nil)
}
