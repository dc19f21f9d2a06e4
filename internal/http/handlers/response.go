// Package handlers provides the HTTP handlers for the gallery: the JSON
// reaction endpoint, the HTML pages and the supplementary feeds.
//
// This file defines the response utilities shared by every endpoint: the
// JSON error envelope, success helpers and the content-negotiated 404.
//
// Conventions:
//   - JSON error responses always return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting, so 5xx responses are
//     logged with request context.
//   - Clients that accept text/html get pages and redirects instead of JSON
//     where an endpoint supports both.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "artwork not found"
//	}
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-artwork-gallery/internal/auth"
	"github.com/tbourn/go-artwork-gallery/internal/http/middleware"
	"github.com/tbourn/go-artwork-gallery/internal/web"
)

// ErrorResponse is the standard error envelope returned by JSON endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"artwork not found"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
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

// Fail is the exported variant of fail() for the router.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// wantsHTML reports whether the client asked for an HTML response.
func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// page returns the header/footer data for a page titled title.
func page(c *gin.Context, title string) web.Page {
	return web.Page{Title: title, User: auth.UserFrom(c)}
}

type notFoundPage struct {
	web.Page
	Path string
}

// NotFound answers with the HTML 404 page when the client accepts HTML and
// with the JSON error envelope otherwise. Restricted pages use it too, so
// they are indistinguishable from unknown routes.
func NotFound(c *gin.Context) {
	if !wantsHTML(c) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "resource not found")
		return
	}
	c.HTML(http.StatusNotFound, "404.html", notFoundPage{
		Page: page(c, "Not found"),
		Path: c.Request.URL.Path,
	})
	c.Abort()
}
