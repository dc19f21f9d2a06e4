// Artwork HTTP handlers.
//
// This file exposes machine-readable views of the collection:
//   - GET /api/artwork        (JSON, ETag support)
//   - GET /feed               (RSS 2.0)
//   - GET /piece/{id}/og      (Open Graph PNG)
package handlers

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
	"github.com/tbourn/go-artwork-gallery/internal/imagestore"
	"github.com/tbourn/go-artwork-gallery/internal/services"
	"github.com/tbourn/go-artwork-gallery/internal/utils"
	"github.com/tbourn/go-artwork-gallery/internal/web"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 500
)

// ListArtwork godoc
// @ID          listArtwork
// @Summary     List artwork
// @Description Returns every saved artwork. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Artwork
// @Produce     json
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"artwork:5:1700000000\")
// @Success     200  {array}  domain.Artwork
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /api/artwork [get]
func (h *Handlers) ListArtwork(c *gin.Context) {
	ctx := c.Request.Context()

	// A failed version lookup only costs the conditional response.
	if etag, err := h.artSvc.Version(ctx); err == nil {
		c.Header("ETag", etag)
		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	arts, err := h.artSvc.List(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if arts == nil {
		arts = []domain.Artwork{}
	}
	ok(c, http.StatusOK, arts)
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	GUID        string        `xml:"guid"`
	PubDate     string        `xml:"pubDate,omitempty"`
	Description string        `xml:"description"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

// Feed godoc
// @ID          feed
// @Summary     RSS feed
// @Description RSS 2.0 feed of artwork, newest first.
// @Tags        Artwork
// @Produce     xml
// @Param       limit  query  int  false "Maximum items"  minimum(1) maximum(500) default(50)
// @Success     200  {string} string "RSS document"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /feed [get]
func (h *Handlers) Feed(c *gin.Context) {
	limit := utils.Clamp(utils.AtoiDefault(c.Query("limit"), defaultFeedLimit), 1, maxFeedLimit)

	arts, err := h.artSvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	newestFirst(arts)
	if len(arts) > limit {
		arts = arts[:limit]
	}

	ch := rssChannel{
		Title:       web.SiteName,
		Link:        h.absURL("/"),
		Description: "Community artwork",
		Items:       make([]rssItem, 0, len(arts)),
	}
	if len(arts) > 0 && !arts[0].Date.IsZero() {
		ch.LastBuildDate = arts[0].Date.UTC().Format(time.RFC1123Z)
	}
	for _, a := range arts {
		link := h.absURL("/piece/" + a.ID)
		it := rssItem{
			Title:       a.Title,
			Link:        link,
			GUID:        link,
			Description: fmt.Sprintf("%s by %s", a.Title, a.Artist.Name),
			Enclosure:   &rssEnclosure{URL: h.absURL("/piece/" + a.ID + "/og"), Type: "image/png"},
		}
		if !a.Date.IsZero() {
			it.PubDate = a.Date.UTC().Format(time.RFC1123Z)
		}
		ch.Items = append(ch.Items, it)
	}

	out, err := xml.MarshalIndent(rssFeed{Version: "2.0", Channel: ch}, "", "  ")
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", append([]byte(xml.Header), out...))
}

// OpenGraph godoc
// @ID          openGraph
// @Summary     Open Graph image
// @Description 1200x630 PNG rendered from the piece's image.
// @Tags        Artwork
// @Produce     png
// @Param       id   path     string true "Artwork ID"
// @Success     200  {file}   binary
// @Header      200  {string} Cache-Control "public, max-age=31536000, immutable"
// @Failure     404  {object} handlers.ErrorResponse "Unknown artwork or image"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /piece/{id}/og [get]
func (h *Handlers) OpenGraph(c *gin.Context) {
	ctx := c.Request.Context()

	art, err := h.artSvc.Get(ctx, c.Param("id"))
	if errors.Is(err, services.ErrArtworkNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "artwork not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	src, err := h.images.Open(ctx, art.Image)
	if errors.Is(err, imagestore.ErrNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "image not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	defer src.Close()

	var buf bytes.Buffer
	if err := imagestore.RenderOG(&buf, src); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
