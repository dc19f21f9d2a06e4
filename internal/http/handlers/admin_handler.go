package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-artwork-gallery/internal/auth"
	"github.com/tbourn/go-artwork-gallery/internal/services"
	"github.com/tbourn/go-artwork-gallery/internal/web"
)

type adminPage struct {
	web.Page
	LastLogin time.Time
	Result    *services.StoreResult
}

// Admin renders the admin page for allow-listed users. GET shows the
// previous sign-in; POST additionally runs the static bulk load, clearing
// saved artwork first when the form field clear is set. Everyone else, and
// every other method, gets exactly the response of an unknown route.
func (h *Handlers) Admin(c *gin.Context) {
	ctx := c.Request.Context()

	user := auth.UserFrom(c)
	m := c.Request.Method
	if (m != http.MethodGet && m != http.MethodPost) || user == nil || !h.adminSvc.IsAdmin(user.Login) {
		NotFound(c)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")

	last, err := h.adminSvc.LogSignIn(ctx, *user)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	data := adminPage{Page: page(c, "Admin"), LastLogin: last}
	if c.Request.Method == http.MethodPost {
		clear := parseCheckbox(c.PostForm("clear"))
		res, err := h.adminSvc.StoreStatic(ctx, clear)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeStoreFailed, err.Error())
			return
		}
		if !wantsHTML(c) {
			ok(c, http.StatusOK, res)
			return
		}
		data.Result = &res
	}
	c.HTML(http.StatusOK, "admin.html", data)
}

func parseCheckbox(v string) bool {
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
