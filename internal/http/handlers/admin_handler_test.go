package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/tbourn/go-artwork-gallery/internal/repo"
	"github.com/tbourn/go-artwork-gallery/internal/services"
)

func TestAdmin_HiddenFromEveryoneElse(t *testing.T) {
	env := newEnv(t)
	r := env.engine(t)

	for _, user := range []string{"", "alice"} {
		req := htmlReq(http.MethodGet, "/admin")
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		w := do(r, req)
		if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "404") {
			t.Fatalf("user %q: status=%d", user, w.Code)
		}
		if cc := w.Header().Get("Cache-Control"); cc != "" {
			t.Fatalf("user %q: cache-control=%q", user, cc)
		}
	}

	// Methods the page does not serve look missing even to an admin.
	for _, m := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		req := htmlReq(m, "/admin")
		req.Header.Set("X-Test-User", "boss")
		if w := do(r, req); w.Code != http.StatusNotFound {
			t.Fatalf("%s: status=%d", m, w.Code)
		}
	}
}

func TestAdmin_GetRecordsSignIn(t *testing.T) {
	env := newEnv(t)
	r := env.engine(t)

	req := htmlReq(http.MethodGet, "/admin")
	req.Header.Set("X-Test-User", "boss")
	w := do(r, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Signed in as boss") {
		t.Fatalf("status=%d body=%s", w.Code, w.Body)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("cache-control=%q", cc)
	}

	var rec struct {
		User struct {
			Login string `json:"login"`
		} `json:"user"`
	}
	found, err := env.kv.Get(context.Background(), repo.Key{"user", "boss"}, &rec)
	if err != nil || !found || rec.User.Login != "boss" {
		t.Fatalf("login record = %+v %v %v", rec, found, err)
	}
}

func TestAdmin_PostStoresStatic(t *testing.T) {
	env := newEnv(t)
	seed(t, env.kv, art("stale", "Stale", "zed", 1))
	r := env.engine(t)

	req := formReq(http.MethodPost, "/admin", url.Values{"clear": {"on"}})
	req.Header.Set("X-Test-User", "boss")
	w := do(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body)
	}
	var res services.StoreResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if res.Cleared != 1 || res.Saved != 2 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}

	arts, _ := repo.ListArtwork(context.Background(), env.kv)
	if len(arts) != 2 {
		t.Fatalf("stored = %+v", arts)
	}

	// HTML form submit shows the result on the page.
	req = formReq(http.MethodPost, "/admin", url.Values{})
	req.Header.Set("X-Test-User", "boss")
	req.Header.Set("Accept", "text/html")
	w = do(r, req)
	if !strings.Contains(w.Body.String(), "2 saved, 0 failed, 0 cleared") {
		t.Fatalf("page: %s", w.Body)
	}
}

func TestParseCheckbox(t *testing.T) {
	for in, want := range map[string]bool{"on": true, "true": true, "1": true, "": false, "off": false, "false": false} {
		if got := parseCheckbox(in); got != want {
			t.Fatalf("parseCheckbox(%q)=%v", in, got)
		}
	}
}
