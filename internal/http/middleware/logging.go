// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// Request correlation and logging work together:
//
//   - RequestID() assigns or propagates X-Request-ID.
//   - RedactingLogger() attaches a request-scoped zerolog.Logger and writes
//     one scrubbed access log line per request.
//   - Recovery() turns panics into JSON 500s logged with the request's fields.
//   - LoggerFrom() hands the request-scoped logger to handlers, adding the
//     session user once the session middleware has resolved it.
//
// Install them in that order so panics and handler logs carry request_id.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	// loggerKey holds the *zerolog.Logger set by RedactingLogger.
	loggerKey = "logger"
	// userIDKey is set by the session middleware to the logged-in user's id.
	userIDKey = "userID"
	// maxQueryLogLength caps the bytes of query string written to a log line.
	maxQueryLogLength = 2048
)

// RequestID reuses the caller's X-Request-ID or generates a UUIDv4, echoes it
// on the response and stores it under "requestID".
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Recovery intercepts panics, logs the stack through LoggerFrom and replies
// { "request_id", "code": "internal_error", "message" } with status 500 unless
// the handler already wrote a response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := c.GetString(requestIDKey)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// none is attached. A logged-in user's id is added as user_id.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	l := log.Logger
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok && lg != nil {
			l = *lg
		}
	}
	if uid := c.GetString(userIDKey); uid != "" {
		l = l.With().Str("user_id", uid).Logger()
	}
	return &l
}

// truncate caps s at max bytes, appending an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
