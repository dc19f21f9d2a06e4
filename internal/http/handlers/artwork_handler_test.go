package handlers

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
	"github.com/tbourn/go-artwork-gallery/internal/imagestore"
)

func TestListArtwork_ETag(t *testing.T) {
	env := newEnv(t)
	r := env.engine(t)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/artwork", nil))
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("empty list: %d %s", w.Code, w.Body)
	}
	emptyTag := w.Header().Get("ETag")

	seed(t, env.kv, art("a", "A", "ann", 1), art("b", "B", "bob", 2))

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/artwork", nil))
	var got []domain.Artwork
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	etag := w.Header().Get("ETag")
	if etag == "" || etag == emptyTag {
		t.Fatalf("etag should change with the collection: %q vs %q", etag, emptyTag)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/artwork", nil)
	req.Header.Set("If-None-Match", etag)
	w = do(r, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestFeed(t *testing.T) {
	env := newEnv(t)
	seed(t, env.kv, art("a", "First", "ann", 1), art("b", "Second", "bob", 5), art("c", "Third", "ann", 3))
	r := env.engine(t)

	w := do(r, httptest.NewRequest(http.MethodGet, "/feed?limit=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/rss+xml; charset=utf-8" {
		t.Fatalf("content-type=%q", ct)
	}
	var feed rssFeed
	if err := xml.Unmarshal(w.Body.Bytes(), &feed); err != nil {
		t.Fatalf("xml: %v", err)
	}
	if feed.Version != "2.0" || len(feed.Channel.Items) != 2 {
		t.Fatalf("feed = %+v", feed)
	}
	first := feed.Channel.Items[0]
	if first.Title != "Second" || first.Link != "https://gallery.example/piece/b" {
		t.Fatalf("first item = %+v", first)
	}
	if first.Enclosure == nil || first.Enclosure.URL != "https://gallery.example/piece/b/og" {
		t.Fatalf("enclosure = %+v", first.Enclosure)
	}

	w = do(r, httptest.NewRequest(http.MethodGet, "/feed?limit=nope", nil))
	_ = xml.Unmarshal(w.Body.Bytes(), &feed)
	if len(feed.Channel.Items) != 3 {
		t.Fatalf("default limit should include all: %d", len(feed.Channel.Items))
	}
}

func TestOpenGraph(t *testing.T) {
	env := newEnv(t)
	seed(t, env.kv, art("a", "A", "ann", 1), art("noimg", "No image", "ann", 2))
	env.images["/art/a.png"] = pngBytes(t, 400, 300)
	r := env.engine(t)

	w := do(r, httptest.NewRequest(http.MethodGet, "/piece/a/og", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=31536000, immutable" {
		t.Fatalf("cache-control=%q", cc)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	if cfg.Width != imagestore.OGWidth || cfg.Height != imagestore.OGHeight {
		t.Fatalf("size=%dx%d", cfg.Width, cfg.Height)
	}

	if w := do(r, httptest.NewRequest(http.MethodGet, "/piece/noimg/og", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("missing image status=%d", w.Code)
	}
	if w := do(r, httptest.NewRequest(http.MethodGet, "/piece/nope/og", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("unknown artwork status=%d", w.Code)
	}
}
