// Reaction HTTP handlers.
//
// This file exposes the reaction endpoint of a piece:
//   - GET    /piece/{id}/like   (summary)
//   - POST   /piece/{id}/like   (set, or delete via form _method=DELETE)
//   - DELETE /piece/{id}/like   (remove)
//
// POST and DELETE accept JSON or form bodies. Browsers posting forms with
// Accept: text/html are redirected back to the piece page.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-artwork-gallery/internal/auth"
	"github.com/tbourn/go-artwork-gallery/internal/domain"
	"github.com/tbourn/go-artwork-gallery/internal/services"
)

//
// DTOs
//

// ReactRequest is the JSON payload for setting a reaction.
type ReactRequest struct {
	// Reaction is one of 👍 ❤️ 🦕 🍕.
	Reaction string `json:"reaction" example:"🦕"`
}

// ReactionSummaryResponse carries who reacted with what, and the counts of
// every reaction kind (zero when unused).
type ReactionSummaryResponse struct {
	Details   domain.ReactionDetails `json:"details" swaggertype:"object"`
	Reactions domain.ReactionCounts  `json:"reactions" swaggertype:"object"`
}

// ReactResponse lists the piece's reaction entries after a write.
type ReactResponse struct {
	Reactions []domain.ReactionEntry `json:"reactions"`
}

// ReactionCountsResponse carries the counts left after a removal.
type ReactionCountsResponse struct {
	Reactions domain.ReactionCounts `json:"reactions" swaggertype:"object"`
}

//
// Handlers
//

// GetReactions godoc
// @ID          getReactions
// @Summary     Reactions on a piece
// @Description Returns the users per reaction and the count of every reaction kind.
// @Tags        Reactions
// @Produce     json
// @Param       id   path     string true "Artwork ID" example(dino-sunrise-jasonjgardner)
// @Success     200  {object} handlers.ReactionSummaryResponse
// @Failure     404  {object} handlers.ErrorResponse "Unknown artwork"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /piece/{id}/like [get]
func (h *Handlers) GetReactions(c *gin.Context) {
	details, counts, err := h.reactSvc.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.reactionError(c, err)
		return
	}
	ok(c, http.StatusOK, ReactionSummaryResponse{Details: details, Reactions: counts})
}

// React godoc
// @ID          react
// @Summary     React to a piece
// @Description Sets (or overwrites) the signed-in user's reaction. A form without a reaction field defaults to 👍, and a form field _method=DELETE removes the reaction instead. Anonymous requests succeed without recording anything.
// @Tags        Reactions
// @Accept      json
// @Accept      x-www-form-urlencoded
// @Produce     json
// @Param       id    path     string                true  "Artwork ID"
// @Param       body  body     handlers.ReactRequest false "Reaction"
// @Success     200   {object} handlers.ReactResponse
// @Success     302   {string} string "Redirect to the piece page (Accept: text/html)"
// @Failure     400   {object} handlers.ErrorResponse "Invalid reaction or id"
// @Failure     404   {object} handlers.ErrorResponse "Unknown artwork"
// @Failure     500   {object} handlers.ErrorResponse "Internal error"
// @Router      /piece/{id}/like [post]
func (h *Handlers) React(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var raw string
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req ReactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
		raw = req.Reaction
	} else {
		if strings.EqualFold(c.PostForm("_method"), http.MethodDelete) {
			h.Unreact(c)
			return
		}
		raw = c.DefaultPostForm("reaction", domain.DefaultReaction.String())
	}

	r, err := domain.ParseReaction(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidReaction, "reaction must be one of 👍 ❤️ 🦕 🍕")
		return
	}

	entries, err := h.reactSvc.React(c.Request.Context(), id, auth.LoginFrom(c), r)
	if err != nil {
		h.reactionError(c, err)
		return
	}
	if wantsHTML(c) {
		c.Redirect(http.StatusFound, "/piece/"+id)
		return
	}
	ok(c, http.StatusOK, ReactResponse{Reactions: entries})
}

// Unreact godoc
// @ID          unreact
// @Summary     Remove a reaction
// @Description Removes the signed-in user's reaction, whatever it was, and returns the remaining counts.
// @Tags        Reactions
// @Produce     json
// @Param       id   path     string true "Artwork ID"
// @Success     200  {object} handlers.ReactionCountsResponse
// @Success     302  {string} string "Redirect to the piece page (Accept: text/html)"
// @Failure     400  {object} handlers.ErrorResponse "Missing id"
// @Failure     401  {object} handlers.ErrorResponse "Not signed in"
// @Failure     404  {object} handlers.ErrorResponse "Unknown artwork"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /piece/{id}/like [delete]
func (h *Handlers) Unreact(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	counts, err := h.reactSvc.Unreact(c.Request.Context(), id, auth.LoginFrom(c))
	if err != nil {
		h.reactionError(c, err)
		return
	}
	if wantsHTML(c) {
		c.Redirect(http.StatusFound, "/piece/"+id)
		return
	}
	ok(c, http.StatusOK, ReactionCountsResponse{Reactions: counts})
}

func (h *Handlers) reactionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to react")
	case errors.Is(err, services.ErrMissingArtworkID):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing artwork id")
	case errors.Is(err, services.ErrInvalidReaction):
		fail(c, http.StatusBadRequest, ErrCodeInvalidReaction, "reaction must be one of 👍 ❤️ 🦕 🍕")
	case errors.Is(err, services.ErrArtworkNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "artwork not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
