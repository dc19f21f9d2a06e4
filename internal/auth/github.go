// Package auth implements GitHub OAuth sign-in and cookie-backed sessions.
//
// Flow:
//   - Begin issues a random state, stores it in a short-lived cookie and
//     returns the GitHub authorization URL.
//   - Complete verifies the state, exchanges the code for a token, fetches the
//     GitHub profile and stores a session under ("session", id). The session
//     id is handed to the browser in the site-session cookie.
//   - CurrentUser resolves that cookie back to the stored profile.
//   - SignOut deletes the session and clears the cookie.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
	"github.com/tbourn/go-artwork-gallery/internal/repo"
)

// Cookie names.
const (
	SessionCookie = "site-session"
	StateCookie   = "oauth-state"
)

const (
	stateTTL          = 10 * time.Minute
	defaultSessionTTL = 7 * 24 * time.Hour
	defaultAPIURL     = "https://api.github.com"
)

var (
	// ErrInvalidState is returned when the callback state does not match the
	// state cookie.
	ErrInvalidState = errors.New("invalid oauth state")

	// ErrMissingCode is returned when the callback carries no code.
	ErrMissingCode = errors.New("missing oauth code")

	// ErrProfile is returned when the GitHub profile could not be fetched.
	ErrProfile = errors.New("github profile request failed")
)

// Config configures the GitHub OAuth application.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// APIURL overrides https://api.github.com.
	APIURL string

	// Endpoint overrides github.Endpoint when non-zero.
	Endpoint oauth2.Endpoint

	SessionTTL    time.Duration
	SecureCookies bool
}

// GitHub is the sign-in provider and session resolver.
type GitHub struct {
	oauth  *oauth2.Config
	api    string
	kv     *repo.KV
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewGitHub builds a provider that stores sessions in kv.
func NewGitHub(cfg Config, kv *repo.KV) *GitHub {
	ep := cfg.Endpoint
	if ep.AuthURL == "" || ep.TokenURL == "" {
		ep = github.Endpoint
	}
	api := strings.TrimRight(cfg.APIURL, "/")
	if api == "" {
		api = defaultAPIURL
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &GitHub{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user"},
			Endpoint:     ep,
		},
		api:    api,
		kv:     kv,
		ttl:    ttl,
		secure: cfg.SecureCookies,
		now:    time.Now,
	}
}

// Begin sets the state cookie and returns the authorization URL.
func (g *GitHub) Begin(w http.ResponseWriter) string {
	state := uuid.NewString()
	http.SetCookie(w, g.cookie(StateCookie, state, stateTTL))
	return g.oauth.AuthCodeURL(state)
}

// Complete finishes the OAuth callback in r and establishes a session.
func (g *GitHub) Complete(ctx context.Context, w http.ResponseWriter, r *http.Request) (*domain.Session, error) {
	q := r.URL.Query()
	sc, err := r.Cookie(StateCookie)
	if err != nil || sc.Value == "" || q.Get("state") != sc.Value {
		return nil, ErrInvalidState
	}
	http.SetCookie(w, g.cookie(StateCookie, "", -1))

	code := q.Get("code")
	if code == "" {
		return nil, ErrMissingCode
	}
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	user, err := g.fetchUser(ctx, tok)
	if err != nil {
		return nil, err
	}

	now := g.now().UTC()
	s := domain.Session{
		ID:          uuid.NewString(),
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		User:        *user,
		CreatedAt:   now,
		ExpiresAt:   now.Add(g.ttl),
	}
	if err := repo.SaveSession(ctx, g.kv, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	http.SetCookie(w, g.cookie(SessionCookie, s.ID, g.ttl))
	return &s, nil
}

// CurrentUser resolves the session cookie on r. It returns nil, nil for
// anonymous, unknown or expired sessions.
func (g *GitHub) CurrentUser(ctx context.Context, r *http.Request) (*domain.GitHubUser, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	s, err := repo.GetSession(ctx, g.kv, c.Value)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Expired(g.now()) {
		return nil, nil
	}
	u := s.User
	return &u, nil
}

// SignOut deletes the session named by r's cookie and clears the cookie.
func (g *GitHub) SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, g.cookie(SessionCookie, "", -1))
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	return repo.DeleteSession(ctx, g.kv, c.Value)
}

func (g *GitHub) fetchUser(ctx context.Context, tok *oauth2.Token) (*domain.GitHubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.api+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProfile, resp.StatusCode)
	}

	var u domain.GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	if u.Login == "" {
		return nil, fmt.Errorf("%w: empty login", ErrProfile)
	}
	return &u, nil
}

func (g *GitHub) cookie(name, value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl / time.Second)
	}
	return c
}
