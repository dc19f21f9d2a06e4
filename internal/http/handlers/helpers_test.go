package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-artwork-gallery/internal/auth"
	"github.com/tbourn/go-artwork-gallery/internal/domain"
	"github.com/tbourn/go-artwork-gallery/internal/imagestore"
	"github.com/tbourn/go-artwork-gallery/internal/repo"
	"github.com/tbourn/go-artwork-gallery/internal/services"
	"github.com/tbourn/go-artwork-gallery/internal/web"
)

// ---------- test DB ----------

func newTestKV(t *testing.T) *repo.KV {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return repo.NewKV(db)
}

func seed(t *testing.T, kv *repo.KV, arts ...domain.Artwork) {
	t.Helper()
	for _, a := range arts {
		if _, err := repo.SaveArtwork(context.Background(), kv, a); err != nil {
			t.Fatalf("seed %s: %v", a.ID, err)
		}
	}
}

func seedReaction(t *testing.T, kv *repo.KV, id, user string, r domain.Reaction) {
	t.Helper()
	if err := repo.SetReaction(context.Background(), kv, id, user, r); err != nil {
		t.Fatalf("seed reaction: %v", err)
	}
}

func art(id, title, artist string, day int) domain.Artwork {
	return domain.Artwork{
		ID:     id,
		Date:   time.Date(2023, 1, day, 0, 0, 0, 0, time.UTC),
		Title:  title,
		Image:  "/art/" + id + ".png",
		Alt:    title,
		Artist: domain.Artist{ID: artist, Name: strings.ToUpper(artist[:1]) + artist[1:], GitHub: artist},
	}
}

// ---------- fakes ----------

type fakeAuth struct {
	completeErr error
	signedOut   bool
}

func (f *fakeAuth) Begin(w http.ResponseWriter) string {
	http.SetCookie(w, &http.Cookie{Name: auth.StateCookie, Value: "st"})
	return "https://github.example/login/oauth/authorize?state=st"
}

func (f *fakeAuth) Complete(_ context.Context, _ http.ResponseWriter, _ *http.Request) (*domain.Session, error) {
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return &domain.Session{ID: "s1", User: domain.GitHubUser{Login: "octo"}}, nil
}

func (f *fakeAuth) SignOut(_ context.Context, _ http.ResponseWriter, _ *http.Request) error {
	f.signedOut = true
	return nil
}

type memImages map[string][]byte

func (m memImages) Open(_ context.Context, name string) (io.ReadCloser, error) {
	b, ok := m[name]
	if !ok {
		return nil, imagestore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// ---------- engine ----------

type testEnv struct {
	kv     *repo.KV
	auth   *fakeAuth
	images memImages
	admin  *services.AdminService
	deps   Deps
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	kv := newTestKV(t)
	env := &testEnv{kv: kv, auth: &fakeAuth{}, images: memImages{}}
	env.admin = &services.AdminService{
		KV:     kv,
		Admins: []string{"boss"},
		Catalog: func() ([]domain.Artwork, error) {
			return []domain.Artwork{art("static-1", "Static One", "ann", 1), art("static-2", "Static Two", "bob", 2)}, nil
		},
	}
	env.deps = Deps{
		Artwork:   &services.ArtworkService{KV: kv},
		Reactions: &services.ReactionService{KV: kv},
		Admin:     env.admin,
		Auth:      env.auth,
		Images:    env.images,
		SiteURL:   "https://gallery.example/",
	}
	return env
}

// engine mounts the handlers the way the router does. Requests carrying
// X-Test-User are treated as signed in with that login.
func (e *testEnv) engine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	tmpl, err := web.Templates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	r.SetHTMLTemplate(tmpl)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-test")
		if login := c.GetHeader("X-Test-User"); login != "" {
			auth.SetUser(c, &domain.GitHubUser{ID: 7, Login: login})
		}
		c.Next()
	})

	h := New(e.deps)
	r.GET("/", h.Index)
	r.GET("/piece/:id", h.Piece)
	r.GET("/piece/:id/og", h.OpenGraph)
	r.GET("/piece/:id/like", h.GetReactions)
	r.POST("/piece/:id/like", h.React)
	r.DELETE("/piece/:id/like", h.Unreact)
	r.GET("/artist/:username", h.Artist)
	r.GET("/api/artwork", h.ListArtwork)
	r.GET("/feed", h.Feed)
	r.GET("/blog/:slug", h.BlogPost)
	r.Any("/admin", h.Admin)
	r.GET("/signin", h.SignIn)
	r.GET("/callback", h.Callback)
	r.GET("/signout", h.SignOut)
	r.NoRoute(NotFound)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
