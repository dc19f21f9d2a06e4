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
	loggerKey       = "logger"
	requestIDHeader = "X-Request-ID"

	maxRequestIDLen   = 128
	maxQueryLogLength = 2048
)

// RequestID reuses the caller's X-Request-ID when it looks like an opaque
// token and mints a UUID otherwise. The ID is stored in the Gin context and
// echoed on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

// validRequestID accepts 1..128 characters of [A-Za-z0-9._:-], which keeps
// caller-supplied IDs from smuggling spaces or control bytes into log lines.
func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch b := s[i]; {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		case b == '-', b == '_', b == '.', b == ':':
		default:
			return false
		}
	}
	return true
}

// ContextLogger derives a logger carrying request_id, user (when signed in),
// method and route. It is stored in the Gin context for LoggerFrom and in
// the request context for log.Ctx, so handlers and services share fields.
func ContextLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		lc := log.With().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("route", routeOf(c))
		if login := c.GetString(ctxUserID); login != "" {
			lc = lc.Str("user", login)
		}
		l := lc.Logger()

		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the process logger when
// ContextLogger did not run.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok && lg != nil {
			return lg
		}
	}
	l := log.Logger
	return &l
}

// Recovery turns a panic into a 500 error envelope, logs the stack and
// counts it. If the handler already wrote a response only the status is
// forced.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			route := c.FullPath()
			if route == "" {
				route = unmatchedRoute
			}
			panicsTotal.WithLabelValues(route).Inc()
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			rid := c.GetString(requestIDKey)
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

// routeOf is the registered route pattern, or the raw path for requests no
// route matched.
func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return c.Request.URL.Path
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
