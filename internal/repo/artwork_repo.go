package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
)

const (
	nsArtwork = "artwork"
	nsArtist  = "artist"
)

func artworkKey(id string) Key { return Key{nsArtwork, id} }

func artistIndexKey(a domain.Artwork) Key {
	return Key{nsArtist, domain.ArtistKey(a.Artist), a.ID}
}

// SaveArtwork writes the artwork under both its primary key and its artist
// index key in one transaction, and returns the artist index key.
func SaveArtwork(ctx context.Context, kv *KV, a domain.Artwork) (Key, error) {
	if a.ID == "" {
		return nil, fmt.Errorf("save artwork: %w: empty id", ErrInvalidKey)
	}
	idx := artistIndexKey(a)
	err := kv.Atomic(ctx, func(tx *KV) error {
		if err := tx.Set(ctx, idx, a); err != nil {
			return err
		}
		return tx.Set(ctx, artworkKey(a.ID), a)
	})
	if err != nil {
		return nil, fmt.Errorf("save artwork %s: %w", idx, err)
	}
	return idx, nil
}

// DeleteArtwork removes both keys of the artwork. Each delete is attempted
// even if the other fails; failures are logged and returned joined.
func DeleteArtwork(ctx context.Context, kv *KV, a domain.Artwork) error {
	var errs []error
	for _, k := range []Key{artistIndexKey(a), artworkKey(a.ID)} {
		if err := kv.Delete(ctx, k); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("key", k.String()).Str("artwork_id", a.ID).Msg("failed to delete artwork")
			errs = append(errs, fmt.Errorf("delete %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// ListArtwork returns every saved artwork via the artist index, grouped by
// artist key.
func ListArtwork(ctx context.Context, kv *KV) ([]domain.Artwork, error) {
	return ListValues[domain.Artwork](ctx, kv, Key{nsArtist})
}

// ListArtworkByArtist returns the artwork saved under one artist key.
func ListArtworkByArtist(ctx context.Context, kv *KV, artistKey string) ([]domain.Artwork, error) {
	return ListValues[domain.Artwork](ctx, kv, Key{nsArtist, artistKey})
}

// GetArtworkByID reads the primary record directly.
func GetArtworkByID(ctx context.Context, kv *KV, id string) (*domain.Artwork, error) {
	var a domain.Artwork
	found, err := kv.Get(ctx, artworkKey(id), &a)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &a, nil
}
