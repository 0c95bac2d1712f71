// Package handlers provides the HTTP handlers for the scores resource.
//
// This file holds the response helpers shared by every endpoint. Success
// bodies are JSON; failures are short plain-text diagnostics so that a client
// can show them verbatim.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	Content-Type: text/plain; charset=utf-8
//
//	Json deserialize error: missing field `player`
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/hanoi-scores/internal/http/middleware"
)

// fail aborts the request with a plain-text body and the given status.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, msg string) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("message", msg).
			Msg("api error")
	}

	c.String(status, msg)
	c.Abort()
}

// Fail is the exported variant of fail(), used by the router for 404/405.
func Fail(c *gin.Context, status int, msg string) { fail(c, status, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
