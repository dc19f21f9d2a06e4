// Page handlers render the gallery's HTML views: the gallery, a single
// piece and an artist.
package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-artwork-gallery/internal/auth"
	"github.com/tbourn/go-artwork-gallery/internal/domain"
	"github.com/tbourn/go-artwork-gallery/internal/services"
	"github.com/tbourn/go-artwork-gallery/internal/web"
)

const sortPopularity = "popularity"

type indexPage struct {
	web.Page
	Sort    string
	Entries []domain.ArtworkEntry
	// Mine holds the ids of pieces the viewer reacted to.
	Mine map[string]bool
}

type piecePage struct {
	web.Page
	Artwork *domain.Artwork
	Details domain.ReactionDetails
	Counts  domain.ReactionCounts
	Mine    domain.Reaction
}

type artistPage struct {
	web.Page
	Artist  domain.Artist
	Entries []domain.ArtworkEntry
}

// Index renders the gallery, newest first or by popularity with
// ?sort=popularity.
func (h *Handlers) Index(c *gin.Context) {
	ctx := c.Request.Context()

	arts, err := h.artSvc.List(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	newestFirst(arts)

	sortBy := c.Query("sort")
	var entries []domain.ArtworkEntry
	if sortBy == sortPopularity {
		entries, err = h.artSvc.SortByPopularity(ctx, arts)
	} else {
		sortBy = ""
		entries, err = h.artSvc.Entries(ctx, arts)
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	mine := map[string]bool{}
	if login := auth.LoginFrom(c); login != "" {
		own, err := h.reactSvc.ForUser(ctx, login)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		for _, e := range own {
			mine[e.ArtworkID] = true
		}
	}

	p := page(c, "")
	p.IsHome = true
	c.HTML(http.StatusOK, "index.html", indexPage{Page: p, Sort: sortBy, Entries: entries, Mine: mine})
}

// Piece renders one artwork with its reaction buttons.
func (h *Handlers) Piece(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	art, err := h.artSvc.Get(ctx, id)
	if errors.Is(err, services.ErrArtworkNotFound) {
		NotFound(c)
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	details, counts, err := h.reactSvc.Summary(ctx, id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	mine, _, err := h.reactSvc.UserReaction(ctx, id, auth.LoginFrom(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	p := page(c, art.Title)
	p.OGImage = h.absURL("/piece/" + art.ID + "/og")
	c.HTML(http.StatusOK, "piece.html", piecePage{
		Page:    p,
		Artwork: art,
		Details: details,
		Counts:  counts,
		Mine:    mine,
	})
}

// Artist renders every piece by one artist. Unknown artists get the 404
// page.
func (h *Handlers) Artist(c *gin.Context) {
	ctx := c.Request.Context()

	arts, err := h.artSvc.ByArtist(ctx, c.Param("username"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if len(arts) == 0 {
		NotFound(c)
		return
	}
	newestFirst(arts)

	entries, err := h.artSvc.Entries(ctx, arts)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	artist := arts[0].Artist
	c.HTML(http.StatusOK, "artist.html", artistPage{
		Page:    page(c, artist.Name),
		Artist:  artist,
		Entries: entries,
	})
}

func newestFirst(arts []domain.Artwork) {
	sort.SliceStable(arts, func(i, j int) bool { return arts[i].Date.After(arts[j].Date) })
}
