package auth

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/http/middleware"
)

const (
	// userIDKey holds the user id as a string; the rate limiter and the
	// access log read it.
	userIDKey    = "userID"
	principalKey = "principal"
)

// Sessions binds a Manager to the session cookie.
type Sessions struct {
	jwt    *Manager
	cookie string
	secure bool
}

// NewSessions creates cookie-backed sessions. secure marks the cookie
// HTTPS-only.
func NewSessions(m *Manager, cookieName string, secure bool) *Sessions {
	if cookieName == "" {
		cookieName = "movie_session"
	}
	return &Sessions{jwt: m, cookie: cookieName, secure: secure}
}

// Middleware loads the principal from the session cookie, if any. Invalid or
// expired cookies are cleared and the request continues anonymously.
func (s *Sessions) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(s.cookie)
		if err != nil || raw == "" {
			c.Next()
			return
		}
		claims, err := s.jwt.Validate(raw)
		if err != nil {
			middleware.LoggerFrom(c).Debug().Err(err).Msg("discarding session cookie")
			s.Clear(c)
			c.Next()
			return
		}
		c.Set(principalKey, claims.Principal)
		c.Set(userIDKey, strconv.FormatUint(uint64(claims.UserID), 10))
		c.Next()
	}
}

// Issue signs a session for p, sets the cookie and exposes p to the rest of
// the request.
func (s *Sessions) Issue(c *gin.Context, p domain.Principal) error {
	token, exp, err := s.jwt.Issue(p)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookie, token, int(time.Until(exp).Seconds()), "/", "", s.secure, true)
	c.Set(principalKey, p)
	c.Set(userIDKey, strconv.FormatUint(uint64(p.UserID), 10))
	return nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookie, "", -1, "/", "", s.secure, true)
	c.Set(principalKey, nil)
	c.Set(userIDKey, "")
}

// CurrentUser returns the logged-in principal.
func CurrentUser(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	if !ok || p.UserID == 0 {
		return domain.Principal{}, false
	}
	return p, true
}

// RequireUser aborts through deny when no user is logged in.
func RequireUser(deny gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			deny(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
