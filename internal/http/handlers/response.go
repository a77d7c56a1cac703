// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint. Business
// outcomes, successful or not, are answered with HTTP 200 and an Envelope
// whose Success flag and stable Code tell the client what happened. Transport
// faults (unknown route, wrong method, rate limit, panic) keep their HTTP
// status and use ErrorResponse.
//
// Example business failure:
//
//	HTTP/1.1 200 OK
//	{
//	  "success": false,
//	  "code": "conflict",
//	  "message": "Movie is in user's catalog.",
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000"
//	}
//
// Example transport fault:
//
//	HTTP/1.1 404 Not Found
//	{ "request_id": "…", "code": "not_found", "message": "route not found" }
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movie-catalog/internal/http/middleware"
	"github.com/tbourn/go-movie-catalog/internal/services"
)

// ErrorResponse is the envelope for transport-level failures.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"route not found"`
}

// Envelope is the body of every business response.
type Envelope struct {
	Success   bool   `json:"success" example:"true"`
	Code      string `json:"code" example:"ok"`
	Message   string `json:"message" example:"Movie wished for User."`
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Data      any    `json:"data,omitempty" swaggertype:"object"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// reply writes a successful business outcome.
func reply(c *gin.Context, msg string, data any) {
	middleware.SetOutcome(c, CodeOK)
	c.JSON(http.StatusOK, Envelope{
		Success:   true,
		Code:      CodeOK,
		Message:   msg,
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Data:      data,
	})
}

// refuse writes a failed business outcome.
func refuse(c *gin.Context, code, msg string) {
	middleware.SetOutcome(c, code)
	c.AbortWithStatusJSON(http.StatusOK, Envelope{
		Code:      code,
		Message:   msg,
		RequestID: c.Writer.Header().Get("X-Request-ID"),
	})
}

// refuseErr translates a service error. Store failures are logged in full and
// answered with storeMsg so no internals reach the client.
func refuseErr(c *gin.Context, err error, storeMsg string) {
	kind := services.KindOf(err)
	switch kind {
	case services.KindStore:
		lg := middleware.LoggerFrom(c)
		ev := lg.Error().Err(err)
		var se *services.StepError
		if errors.As(err, &se) {
			ev = ev.Str("step", string(se.Step))
		}
		ev.Msg("store failure")
		refuse(c, ErrCodeStore, storeMsg)
	case services.KindUpstream:
		middleware.LoggerFrom(c).Warn().Err(err).Msg("upstream failure")
		refuse(c, ErrCodeUpstream, "Could not reach the movie database.")
	default:
		refuse(c, codeFor(kind), messageFor(err))
	}
}
