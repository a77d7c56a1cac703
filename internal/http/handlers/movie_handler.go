// Movie HTTP handlers.
//
//   - GET /movies?title=…|id=…
//   - GET /movies/new-releases
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SearchMovies godoc
// @ID          searchMovies
// @Summary     Search TMDb
// @Description Searches by title, or fetches one movie with watch providers and videos by TMDb id. Exactly one of the two is accepted.
// @Tags        Movies
// @Produce     json
// @Param       title  query  string  false  "Title to search"  example(Fight Club)
// @Param       id     query  int     false  "TMDb id"          example(550)
// @Success     200  {object}  handlers.Envelope{data=services.SearchResult}
// @Router      /movies [get]
func (h *Handlers) SearchMovies(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	id := strings.TrimSpace(c.Query("id"))
	switch {
	case title == "" && id == "":
		refuse(c, ErrCodeValidation, "Missing parameter: title OR id")
		return
	case title != "" && id != "":
		refuse(c, ErrCodeValidation, "You may search by title OR id")
		return
	}

	res, err := h.movies.Search(c.Request.Context(), title, id)
	if err != nil {
		refuseErr(c, err, "ERR: Searching movies.")
		return
	}
	msg := "Film title query successfully processed"
	if res.Query == "id" {
		msg = "Film ID query successfully processed"
	}
	reply(c, msg, res)
}

// NewReleases godoc
// @ID          newReleases
// @Summary     New releases
// @Description Latest release snapshot grouped by release week, weeks in listing order.
// @Tags        Movies
// @Produce     json
// @Success     200  {object}  handlers.Envelope{data=services.ReleaseWeeks}
// @Router      /movies/new-releases [get]
func (h *Handlers) NewReleases(c *gin.Context) {
	weeks, err := h.movies.NewReleases(c.Request.Context())
	if err != nil {
		refuseErr(c, err, "ERR: Could not retrieve new releases.")
		return
	}
	reply(c, "New releases retrieved.", weeks)
}
