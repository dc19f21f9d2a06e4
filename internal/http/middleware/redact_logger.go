package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// RedactOptions extends the access log's scrub lists.
type RedactOptions struct {
	// MaskHeaders are replaced with "[REDACTED]" in addition to
	// Authorization, Cookie and Set-Cookie. Case-insensitive.
	MaskHeaders []string
	// MaskQuery are query parameters replaced with "[REDACTED]" in addition
	// to the OAuth callback's code and state.
	MaskQuery []string
}

var (
	// GitHub tokens: gho_, ghp_, ghu_, ghs_, ghr_ followed by 36+ chars.
	ghTokenRE = regexp.MustCompile(`\bgh[oprsu]_[A-Za-z0-9]{20,}\b`)
	uuidRE    = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE   = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
)

// redactor scrubs request metadata before it is logged.
type redactor struct {
	headers map[string]struct{} // lower-cased names
	query   map[string]struct{}
}

func newRedactor(opts RedactOptions) *redactor {
	r := &redactor{
		headers: map[string]struct{}{"authorization": {}, "cookie": {}, "set-cookie": {}},
		query:   map[string]struct{}{"code": {}, "state": {}},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.headers[h] = struct{}{}
		}
	}
	for _, q := range opts.MaskQuery {
		if q = strings.TrimSpace(q); q != "" {
			r.query[q] = struct{}{}
		}
	}
	return r
}

// text replaces tokens, session IDs and emails inside free text.
func (r *redactor) text(s string) string {
	if s == "" {
		return s
	}
	s = ghTokenRE.ReplaceAllString(s, "[REDACTED:token]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	return emailRE.ReplaceAllString(s, "[REDACTED:email]")
}

// rawQuery masks listed parameters in place, keeping parameter order, then
// scrubs the remainder.
func (r *redactor) rawQuery(raw string) string {
	if raw == "" {
		return raw
	}
	pairs := strings.Split(raw, "&")
	for i, p := range pairs {
		k, _, found := strings.Cut(p, "=")
		if !found {
			continue
		}
		if name, err := url.QueryUnescape(k); err == nil {
			if _, ok := r.query[name]; ok {
				pairs[i] = k + "=[REDACTED]"
			}
		}
	}
	return truncate(r.text(strings.Join(pairs, "&")), maxQueryLogLength)
}

func (r *redactor) header(name string, values []string) string {
	if _, ok := r.headers[strings.ToLower(name)]; ok {
		return "[REDACTED]"
	}
	return r.text(strings.Join(values, ", "))
}

// RedactingLogger writes one "http_request" line per request through the
// request-scoped logger. Bodies are never logged. Sensitive headers and the
// OAuth callback parameters are masked; GitHub tokens, UUIDs (session and
// state IDs) and email addresses are replaced wherever they appear. 5xx and
// requests with gin errors log at error, other 4xx at warn.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	rd := newRedactor(opts)

	return func(c *gin.Context) {
		start := time.Now()
		query := rd.rawQuery(c.Request.URL.RawQuery)
		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			headers[k] = rd.header(k, vv)
		}

		c.Next()

		status := c.Writer.Status()
		lg := LoggerFrom(c)
		ev := lg.Info()
		switch {
		case len(c.Errors) > 0:
			ev = lg.Error().Strs("errors", c.Errors.Errors())
		case status >= 500:
			ev = lg.Error()
		case status >= 400:
			ev = lg.Warn()
		}

		// Without ContextLogger the line still needs a correlation ID.
		if _, scoped := c.Get(loggerKey); !scoped {
			rid := c.Writer.Header().Get(requestIDHeader)
			if rid == "" {
				rid = c.GetHeader(requestIDHeader)
			}
			ev = ev.Str("request_id", rid)
		}

		ev.Str("path", c.Request.URL.Path).
			Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
