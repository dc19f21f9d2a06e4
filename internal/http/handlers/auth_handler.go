package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-artwork-gallery/internal/auth"
	"github.com/tbourn/go-artwork-gallery/internal/http/middleware"
)

// SignIn redirects to the OAuth provider.
func (h *Handlers) SignIn(c *gin.Context) {
	c.Redirect(http.StatusFound, h.auth.Begin(c.Writer))
}

// Callback completes the OAuth flow and returns to the gallery.
func (h *Handlers) Callback(c *gin.Context) {
	s, err := h.auth.Complete(c.Request.Context(), c.Writer, c.Request)
	switch {
	case errors.Is(err, auth.ErrInvalidState), errors.Is(err, auth.ErrMissingCode):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeAuthFailed, err.Error())
		return
	}
	lg := middleware.LoggerFrom(c)
	lg.Info().Str("login", s.User.Login).Msg("signed in")
	c.Redirect(http.StatusFound, "/")
}

// SignOut ends the session and returns to the gallery.
func (h *Handlers) SignOut(c *gin.Context) {
	if err := h.auth.SignOut(c.Request.Context(), c.Writer, c.Request); err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Msg("sign out")
	}
	c.Redirect(http.StatusFound, "/")
}
