package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
)

const nsReaction = "reaction"

func reactionKey(artworkID, user string) Key { return Key{nsReaction, artworkID, user} }

// SetReaction stores user's reaction on artworkID, replacing any previous one.
func SetReaction(ctx context.Context, kv *KV, artworkID, user string, r domain.Reaction) error {
	if !r.Valid() {
		return fmt.Errorf("set reaction: %w", domain.ErrUnknownReaction)
	}
	if err := kv.Set(ctx, reactionKey(artworkID, user), r); err != nil {
		return fmt.Errorf("set reaction %s: %w", reactionKey(artworkID, user), err)
	}
	return nil
}

// GetReaction returns user's current reaction on artworkID, if any.
func GetReaction(ctx context.Context, kv *KV, artworkID, user string) (domain.Reaction, bool, error) {
	var r domain.Reaction
	found, err := kv.Get(ctx, reactionKey(artworkID, user), &r)
	return r, found, err
}

// RemoveReaction deletes user's reaction on artworkID. With a nil expected
// the delete is unconditional. Otherwise the entry is deleted only when it
// currently holds *expected; a mismatch or a missing entry is a no-op.
func RemoveReaction(ctx context.Context, kv *KV, artworkID, user string, expected *domain.Reaction) error {
	key := reactionKey(artworkID, user)
	if expected == nil {
		return kv.Delete(ctx, key)
	}
	return kv.Atomic(ctx, func(tx *KV) error {
		var cur domain.Reaction
		found, err := tx.Get(ctx, key, &cur)
		if err != nil || !found || cur != *expected {
			return err
		}
		return tx.Delete(ctx, key)
	})
}

// ListArtworkReactions returns the reactions left on artworkID in store order.
func ListArtworkReactions(ctx context.Context, kv *KV, artworkID string) ([]domain.ReactionEntry, error) {
	return listReactions(ctx, kv, Key{nsReaction, artworkID}, "")
}

// ListUserReactions returns every reaction user has left. There is no
// per-user index, so this scans the whole reaction namespace.
func ListUserReactions(ctx context.Context, kv *KV, user string) ([]domain.ReactionEntry, error) {
	return listReactions(ctx, kv, Key{nsReaction}, user)
}

// ListReactions returns every stored reaction.
func ListReactions(ctx context.Context, kv *KV) ([]domain.ReactionEntry, error) {
	return listReactions(ctx, kv, Key{nsReaction}, "")
}

func listReactions(ctx context.Context, kv *KV, prefix Key, user string) ([]domain.ReactionEntry, error) {
	entries, err := kv.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ReactionEntry, 0, len(entries))
	for _, e := range entries {
		if len(e.Key) != 3 {
			continue
		}
		if user != "" && e.Key[2] != user {
			continue
		}
		var r domain.Reaction
		if err := json.Unmarshal(e.Value, &r); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out = append(out, domain.ReactionEntry{ArtworkID: e.Key[1], User: e.Key[2], Reaction: r})
	}
	return out, nil
}
