// Package web holds the gallery's embedded HTML templates and static assets.
package web

import (
	"embed"
	"hash/fnv"
	"html/template"
	"io/fs"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// SiteName is shown in page titles and the header.
const SiteName = "Artwork Gallery"

var defaultAvatars = []string{
	"https://deno-avatar.deno.dev/avatar/12fdaa.svg",
	"https://deno-avatar.deno.dev/avatar/7a9fd1.svg",
	"https://deno-avatar.deno.dev/avatar/99b954.svg",
	"https://deno-avatar.deno.dev/avatar/4fac21.svg",
}

// Page carries the fields every template's header and footer read. Page
// data types embed it.
type Page struct {
	Title   string
	OGImage string
	IsHome  bool
	User    *domain.GitHubUser
}

// Templates parses every embedded template with the shared FuncMap.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// FuncMap returns the helpers available to templates.
func FuncMap() template.FuncMap {
	titler := cases.Title(language.English, cases.NoLower)
	return template.FuncMap{
		"siteName":  func() string { return SiteName },
		"title":     func(s string) string { return titler.String(s) },
		"reactions": domain.Reactions,
		"artistKey": domain.ArtistKey,
		"count": func(c domain.ReactionCounts, r domain.Reaction) int {
			return c[r]
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("January 2, 2006")
		},
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return "never"
			}
			return t.UTC().Format("2006-01-02 15:04 MST")
		},
		"avatar": Avatar,
	}
}

// Avatar returns the user's GitHub avatar or a stable default picked from
// the login.
func Avatar(u *domain.GitHubUser) string {
	if u == nil {
		return defaultAvatars[0]
	}
	if u.AvatarURL != "" {
		return u.AvatarURL
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(u.Login))
	return defaultAvatars[int(h.Sum32()%uint32(len(defaultAvatars)))]
}
