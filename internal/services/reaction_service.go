// Package services – ReactionService
//
// ReactionService records and summarises the emoji reactions users leave on
// artwork. It validates input against the canonical reaction set, checks the
// artwork exists, and maps storage outcomes to service errors.
//
// Observability: public methods are OpenTelemetry-instrumented and every
// write outcome increments gallery_reactions_total{action,reaction}.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
	"github.com/tbourn/go-artwork-gallery/internal/repo"
)

var reactionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gallery_reactions_total",
		Help: "Reaction writes by outcome and reaction kind.",
	},
	[]string{"action", "reaction"},
)

func init() {
	prometheus.MustRegister(reactionsTotal)
}

// Reaction write outcomes used as the "action" metric label.
const (
	actionSet     = "set"
	actionRemove  = "remove"
	actionSkipped = "skipped"
)

// ReactionService implements the reaction use-cases on top of the KV store.
type ReactionService struct {
	KV *repo.KV
}

// Summary returns the reactions on artworkID as per-kind user lists and as
// counts merged with zero defaults, so every canonical kind is present in
// the counts.
func (s *ReactionService) Summary(ctx context.Context, artworkID string) (domain.ReactionDetails, domain.ReactionCounts, error) {
	ctx, span := otel.Tracer("services/ReactionService").Start(ctx, "Summary",
		trace.WithAttributes(attribute.String("artwork.id", artworkID)),
	)
	defer span.End()

	if err := s.ensureArtwork(ctx, artworkID); err != nil {
		return nil, nil, err
	}
	entries, err := repo.ListArtworkReactions(ctx, s.KV, artworkID)
	if err != nil {
		return nil, nil, err
	}
	return domain.BuildReactionDetails(entries), domain.MergeCounts(domain.DefaultCounts(), domain.CountReactions(entries)), nil
}

// Counts returns the per-kind counts for artworkID. Kinds with no entries
// are omitted.
func (s *ReactionService) Counts(ctx context.Context, artworkID string) (domain.ReactionCounts, error) {
	entries, err := repo.ListArtworkReactions(ctx, s.KV, artworkID)
	if err != nil {
		return nil, err
	}
	return domain.CountReactions(entries), nil
}

// React sets user's reaction on artworkID and returns the artwork's current
// reaction entries.
//
// Semantics:
//   - empty artworkID -> ErrMissingArtworkID
//   - invalid reaction -> ErrInvalidReaction
//   - unknown artwork -> ErrArtworkNotFound
//   - empty user: the write is skipped and the current entries are still
//     returned without error.
func (s *ReactionService) React(ctx context.Context, artworkID, user string, r domain.Reaction) ([]domain.ReactionEntry, error) {
	ctx, span := otel.Tracer("services/ReactionService").Start(ctx, "React",
		trace.WithAttributes(
			attribute.String("artwork.id", artworkID),
			attribute.String("reaction", r.String()),
			attribute.Bool("authenticated", user != ""),
		),
	)
	defer span.End()

	if strings.TrimSpace(artworkID) == "" {
		return nil, ErrMissingArtworkID
	}
	if !r.Valid() {
		return nil, ErrInvalidReaction
	}
	if err := s.ensureArtwork(ctx, artworkID); err != nil {
		return nil, err
	}

	if user == "" {
		log.Ctx(ctx).Warn().Str("artwork_id", artworkID).Str("reaction", r.String()).
			Msg("anonymous reaction not recorded")
		reactionsTotal.WithLabelValues(actionSkipped, r.String()).Inc()
	} else {
		if err := repo.SetReaction(ctx, s.KV, artworkID, user, r); err != nil {
			return nil, err
		}
		reactionsTotal.WithLabelValues(actionSet, r.String()).Inc()
	}

	return repo.ListArtworkReactions(ctx, s.KV, artworkID)
}

// Unreact removes user's reaction on artworkID unconditionally and returns
// the remaining counts merged with zero defaults.
func (s *ReactionService) Unreact(ctx context.Context, artworkID, user string) (domain.ReactionCounts, error) {
	ctx, span := otel.Tracer("services/ReactionService").Start(ctx, "Unreact",
		trace.WithAttributes(attribute.String("artwork.id", artworkID)),
	)
	defer span.End()

	if user == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(artworkID) == "" {
		return nil, ErrMissingArtworkID
	}
	if err := repo.RemoveReaction(ctx, s.KV, artworkID, user, nil); err != nil {
		if errors.Is(err, repo.ErrInvalidKey) {
			return nil, ErrArtworkNotFound
		}
		return nil, err
	}
	reactionsTotal.WithLabelValues(actionRemove, "any").Inc()

	if err := s.ensureArtwork(ctx, artworkID); err != nil {
		return nil, err
	}
	counts, err := s.Counts(ctx, artworkID)
	if err != nil {
		return nil, err
	}
	return domain.MergeCounts(domain.DefaultCounts(), counts), nil
}

// UserReaction returns user's current reaction on artworkID, if any.
func (s *ReactionService) UserReaction(ctx context.Context, artworkID, user string) (domain.Reaction, bool, error) {
	if user == "" {
		return 0, false, nil
	}
	return repo.GetReaction(ctx, s.KV, artworkID, user)
}

// ForUser lists every reaction user has left, across all artwork.
func (s *ReactionService) ForUser(ctx context.Context, user string) ([]domain.ReactionEntry, error) {
	if user == "" {
		return []domain.ReactionEntry{}, nil
	}
	return repo.ListUserReactions(ctx, s.KV, user)
}

func (s *ReactionService) ensureArtwork(ctx context.Context, id string) error {
	if _, err := repo.GetArtworkByID(ctx, s.KV, id); err != nil {
		// An id that cannot form a key cannot name a saved piece either.
		if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrInvalidKey) {
			return ErrArtworkNotFound
		}
		return err
	}
	return nil
}
