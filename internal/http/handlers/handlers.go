package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tbourn/go-artwork-gallery/internal/blog"
	"github.com/tbourn/go-artwork-gallery/internal/domain"
	"github.com/tbourn/go-artwork-gallery/internal/imagestore"
	"github.com/tbourn/go-artwork-gallery/internal/services"
)

//
// Service contracts (context-aware)
//

// ArtworkService reads saved artwork and orders it.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ArtworkService interface {
	List(ctx context.Context) ([]domain.Artwork, error)
	// Get returns services.ErrArtworkNotFound for unknown ids.
	Get(ctx context.Context, id string) (*domain.Artwork, error)
	ByArtist(ctx context.Context, artistKey string) ([]domain.Artwork, error)
	// Version is a weak ETag for List; it changes on every write.
	Version(ctx context.Context) (string, error)
	Entries(ctx context.Context, artworks []domain.Artwork) ([]domain.ArtworkEntry, error)
	SortByPopularity(ctx context.Context, artworks []domain.Artwork) ([]domain.ArtworkEntry, error)
}

// ReactionService reads and writes reactions on artwork.
type ReactionService interface {
	Summary(ctx context.Context, artworkID string) (domain.ReactionDetails, domain.ReactionCounts, error)
	React(ctx context.Context, artworkID, user string, r domain.Reaction) ([]domain.ReactionEntry, error)
	Unreact(ctx context.Context, artworkID, user string) (domain.ReactionCounts, error)
	UserReaction(ctx context.Context, artworkID, user string) (domain.Reaction, bool, error)
	ForUser(ctx context.Context, user string) ([]domain.ReactionEntry, error)
}

// AdminService backs the admin page.
type AdminService interface {
	IsAdmin(login string) bool
	LogSignIn(ctx context.Context, u domain.GitHubUser) (time.Time, error)
	StoreStatic(ctx context.Context, clear bool) (services.StoreResult, error)
}

// Authenticator runs the OAuth sign-in flow.
type Authenticator interface {
	// Begin sets any state cookies on w and returns the provider URL.
	Begin(w http.ResponseWriter) string
	Complete(ctx context.Context, w http.ResponseWriter, r *http.Request) (*domain.Session, error)
	SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// BlogStore loads rendered posts by slug.
type BlogStore interface {
	Get(slug string) (*blog.Post, error)
}

//
// Handler wiring
//

// Deps lists the collaborators of Handlers.
type Deps struct {
	Artwork   ArtworkService
	Reactions ReactionService
	Admin     AdminService
	Auth      Authenticator
	Images    imagestore.Source
	Blog      BlogStore

	// SiteURL is the absolute origin used in feeds and Open Graph tags.
	SiteURL string
}

// Handlers groups the gallery's HTTP endpoints. It depends on abstract
// service interfaces to keep transport concerns separate from business
// logic.
type Handlers struct {
	artSvc   ArtworkService
	reactSvc ReactionService
	adminSvc AdminService
	auth     Authenticator
	images   imagestore.Source
	blog     BlogStore
	siteURL  string
}

// New constructs a Handlers instance bound to d.
func New(d Deps) *Handlers {
	return &Handlers{
		artSvc:   d.Artwork,
		reactSvc: d.Reactions,
		adminSvc: d.Admin,
		auth:     d.Auth,
		images:   d.Images,
		blog:     d.Blog,
		siteURL:  strings.TrimRight(d.SiteURL, "/"),
	}
}

func (h *Handlers) absURL(path string) string {
	return h.siteURL + path
}
