// Package services – ArtworkService
//
// ArtworkService reads saved artwork, attaches reactions to it and orders it
// by popularity. All reads go through the artist index so a listing never
// returns the same piece twice.
package services

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
	"github.com/tbourn/go-artwork-gallery/internal/repo"
)

// ArtworkService implements the artwork read use-cases.
type ArtworkService struct {
	KV *repo.KV
}

// List returns every saved artwork.
func (s *ArtworkService) List(ctx context.Context) ([]domain.Artwork, error) {
	ctx, span := otel.Tracer("services/ArtworkService").Start(ctx, "List")
	defer span.End()
	return repo.ListArtwork(ctx, s.KV)
}

// Get returns the artwork with id, found by scanning the full listing, or
// ErrArtworkNotFound.
func (s *ArtworkService) Get(ctx context.Context, id string) (*domain.Artwork, error) {
	ctx, span := otel.Tracer("services/ArtworkService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("artwork.id", id)),
	)
	defer span.End()

	all, err := repo.ListArtwork(ctx, s.KV)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, ErrArtworkNotFound
}

// ByArtist returns the artwork saved under artistKey. An unknown key, or one
// that cannot form a store key, yields an empty list.
func (s *ArtworkService) ByArtist(ctx context.Context, artistKey string) ([]domain.Artwork, error) {
	ctx, span := otel.Tracer("services/ArtworkService").Start(ctx, "ByArtist",
		trace.WithAttributes(attribute.String("artist.key", artistKey)),
	)
	defer span.End()

	arts, err := repo.ListArtworkByArtist(ctx, s.KV, artistKey)
	if errors.Is(err, repo.ErrInvalidKey) {
		return []domain.Artwork{}, nil
	}
	return arts, err
}

// Version returns a weak ETag for the current artwork listing. It changes
// whenever a piece is saved, replaced or removed.
func (s *ArtworkService) Version(ctx context.Context) (string, error) {
	st, err := repo.NamespaceStats(ctx, s.KV, repo.Key{"artist"})
	if err != nil {
		return "", err
	}
	return st.Tag("artwork"), nil
}

// Entries pairs each artwork with its reactions, reading the reaction
// namespace once.
func (s *ArtworkService) Entries(ctx context.Context, artworks []domain.Artwork) ([]domain.ArtworkEntry, error) {
	all, err := repo.ListReactions(ctx, s.KV)
	if err != nil {
		return nil, err
	}
	byArt := groupByArtwork(all)

	out := make([]domain.ArtworkEntry, 0, len(artworks))
	for _, a := range artworks {
		out = append(out, domain.ArtworkEntry{Artwork: a, Reactions: nonNil(byArt[a.ID])})
	}
	return out, nil
}

// SortByPopularity returns entries for artworks ordered by total reaction
// count, most first. Ties keep their input order and the input slice is not
// modified.
func (s *ArtworkService) SortByPopularity(ctx context.Context, artworks []domain.Artwork) ([]domain.ArtworkEntry, error) {
	ctx, span := otel.Tracer("services/ArtworkService").Start(ctx, "SortByPopularity",
		trace.WithAttributes(attribute.Int("artwork.count", len(artworks))),
	)
	defer span.End()

	entries, err := s.Entries(ctx, artworks)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].Reactions) > len(entries[j].Reactions)
	})
	return entries, nil
}

func groupByArtwork(entries []domain.ReactionEntry) map[string][]domain.ReactionEntry {
	out := make(map[string][]domain.ReactionEntry)
	for _, e := range entries {
		out[e.ArtworkID] = append(out[e.ArtworkID], e)
	}
	return out
}

func nonNil(e []domain.ReactionEntry) []domain.ReactionEntry {
	if e == nil {
		return []domain.ReactionEntry{}
	}
	return e
}
