// User HTTP handlers.
//
//   - GET    /users           (current user)
//   - POST   /users/register
//   - POST   /users/login
//   - POST   /users/logout
//   - PUT    /users/update
//   - DELETE /users/remove
package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movie-catalog/internal/auth"
	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/services"
)

// CurrentUserResponse reports the session state.
type CurrentUserResponse struct {
	LoggedIn bool              `json:"logged_in"`
	User     *domain.Principal `json:"user,omitempty"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Username string `json:"username" example:"movie_fan"`
	Password string `json:"password" example:"Sup3r$ecret"`
}

// CurrentUser godoc
// @ID          currentUser
// @Summary     Current user
// @Description Reports whether a session is active and, if so, for whom.
// @Tags        Users
// @Produce     json
// @Success     200  {object}  handlers.Envelope{data=handlers.CurrentUserResponse}
// @Router      /users [get]
func (h *Handlers) CurrentUser(c *gin.Context) {
	p, ok := auth.CurrentUser(c)
	if !ok {
		reply(c, "No user logged in.", CurrentUserResponse{})
		return
	}
	reply(c, "User is logged in.", CurrentUserResponse{LoggedIn: true, User: &p})
}

// Register godoc
// @ID          registerUser
// @Summary     Create an account
// @Description Validates the fields and creates the account. Does not log in.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body  services.RegisterInput  true  "Account fields"
// @Success     200  {object}  handlers.Envelope{data=domain.Principal}
// @Router      /users/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		refuse(c, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		if services.KindOf(err) == services.KindConflict {
			refuse(c, ErrCodeConflict, fmt.Sprintf("Username: %s, is taken.", in.Username))
			return
		}
		refuseErr(c, err, "Error querying the database.")
		return
	}
	reply(c, fmt.Sprintf("Account created for user: %s.", p.Username), p)
}

// Login godoc
// @ID          loginUser
// @Summary     Log in
// @Description Verifies the credentials and starts a session cookie.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
// @Success     200  {object}  handlers.Envelope{data=domain.Principal}
// @Router      /users/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		refuse(c, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	switch {
	case req.Username == "":
		refuse(c, ErrCodeValidation, messageFor(services.ErrInvalidUsername))
		return
	case req.Password == "":
		refuse(c, ErrCodeValidation, messageFor(services.ErrInvalidPassword))
		return
	}

	p, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		refuseErr(c, err, "Error querying the database.")
		return
	}
	if err := h.sessions.Issue(c, p); err != nil {
		refuseErr(c, err, "Could not start a session.")
		return
	}
	reply(c, "User logged in.", p)
}

// Logout godoc
// @ID          logoutUser
// @Summary     Log out
// @Tags        Users
// @Produce     json
// @Success     200  {object}  handlers.Envelope
// @Router      /users/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	h.sessions.Clear(c)
	reply(c, "User logged out.", nil)
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Update account fields
// @Description Applies any subset of the fields atomically and refreshes the session.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body  services.UpdateInput  true  "Fields to change"
// @Success     200  {object}  handlers.Envelope{data=domain.Principal}
// @Router      /users/update [put]
func (h *Handlers) UpdateUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in services.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		refuse(c, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	updated, err := h.users.Update(c.Request.Context(), p, in)
	if err != nil {
		refuseErr(c, err, "Could not update user information.")
		return
	}
	if err := h.sessions.Issue(c, updated); err != nil {
		refuseErr(c, err, "Could not refresh the session.")
		return
	}
	reply(c, "User updates were made successfully.", updated)
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete the account
// @Description Deletes the account with its catalog and wish list, then ends the session.
// @Tags        Users
// @Produce     json
// @Success     200  {object}  handlers.Envelope
// @Router      /users/remove [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), p); err != nil {
		refuseErr(c, err, "User was deleted: false")
		return
	}
	h.sessions.Clear(c)
	reply(c, "User was deleted: true", nil)
}
