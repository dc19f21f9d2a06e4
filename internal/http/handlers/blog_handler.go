package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-artwork-gallery/internal/blog"
	"github.com/tbourn/go-artwork-gallery/internal/web"
)

type blogPage struct {
	web.Page
	Post *blog.Post
}

// BlogPost renders the markdown post named by :slug.
func (h *Handlers) BlogPost(c *gin.Context) {
	if h.blog == nil {
		NotFound(c)
		return
	}
	post, err := h.blog.Get(c.Param("slug"))
	if errors.Is(err, blog.ErrPostNotFound) {
		NotFound(c)
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	c.HTML(http.StatusOK, "blog.html", blogPage{Page: page(c, post.Title), Post: post})
}
