package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
)

// Gin context keys set by Identify. "userID" holds the GitHub login and is
// what the rate limiter keys on.
const (
	CtxUser   = "user"
	CtxUserID = "userID"
)

// Resolver maps a request to the signed-in user, or nil for anonymous.
type Resolver interface {
	CurrentUser(ctx context.Context, r *http.Request) (*domain.GitHubUser, error)
}

// Identify resolves the current user once per request. Resolution errors are
// logged and the request continues as anonymous. Requests matching skip
// (health probes, metrics scrapes, assets) stay anonymous without a store
// read.
func Identify(res Resolver, skip func(*gin.Context) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skip != nil && skip(c) {
			c.Next()
			return
		}
		u, err := res.CurrentUser(c.Request.Context(), c.Request)
		if err != nil {
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("session lookup failed")
		}
		if u != nil {
			SetUser(c, u)
		}
		c.Next()
	}
}

// SetUser stores u on the gin context.
func SetUser(c *gin.Context, u *domain.GitHubUser) {
	c.Set(CtxUser, u)
	c.Set(CtxUserID, u.Login)
}

// UserFrom returns the user set by Identify, or nil.
func UserFrom(c *gin.Context) *domain.GitHubUser {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*domain.GitHubUser); ok {
			return u
		}
	}
	return nil
}

// LoginFrom returns the signed-in login, or "".
func LoginFrom(c *gin.Context) string {
	if u := UserFrom(c); u != nil {
		return u.Login
	}
	return ""
}
