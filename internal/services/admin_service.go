// Package services – AdminService
//
// AdminService gates the admin page to an allow-list of GitHub logins,
// records admin sign-ins, and bulk loads the static artwork catalog into the
// store. The bulk load never aborts on a single bad record: failures are
// logged and counted.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
	"github.com/tbourn/go-artwork-gallery/internal/repo"
)

// StoreResult summarises one bulk load.
type StoreResult struct {
	Cleared int `json:"cleared"`
	Saved   int `json:"saved"`
	Failed  int `json:"failed"`
}

// AdminService implements the admin use-cases.
type AdminService struct {
	KV *repo.KV

	// Admins is the allow-list of GitHub logins.
	Admins []string

	// Catalog returns the artwork to bulk load.
	Catalog func() ([]domain.Artwork, error)

	// Concurrency bounds parallel saves during StoreStatic (<=0 means 8).
	Concurrency int

	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

// IsAdmin reports whether login is on the allow-list.
func (s *AdminService) IsAdmin(login string) bool {
	login = strings.TrimSpace(login)
	if login == "" {
		return false
	}
	for _, a := range s.Admins {
		if strings.TrimSpace(a) == login {
			return true
		}
	}
	return false
}

// LogSignIn records u's sign-in and returns the previous sign-in time, or
// now on a first sign-in.
func (s *AdminService) LogSignIn(ctx context.Context, u domain.GitHubUser) (time.Time, error) {
	return repo.LogUserSignIn(ctx, s.KV, u, s.now())
}

// StoreStatic loads the catalog into the store. When clear is set every
// saved artwork is deleted first; delete failures are logged and never
// abort the load. Saves run concurrently and a failed save is logged and
// counted. The returned error is non-nil only when the catalog itself (or
// the listing needed to clear) could not be read.
func (s *AdminService) StoreStatic(ctx context.Context, clear bool) (StoreResult, error) {
	ctx, span := otel.Tracer("services/AdminService").Start(ctx, "StoreStatic",
		trace.WithAttributes(attribute.Bool("clear", clear)),
	)
	defer span.End()

	var res StoreResult
	lg := log.Ctx(ctx)

	if clear {
		saved, err := repo.ListArtwork(ctx, s.KV)
		if err != nil {
			return res, fmt.Errorf("list saved artwork: %w", err)
		}
		for _, a := range saved {
			if err := repo.DeleteArtwork(ctx, s.KV, a); err != nil {
				lg.Error().Err(err).Str("artwork_id", a.ID).Msg("clear: delete failed")
				continue
			}
			res.Cleared++
		}
		lg.Info().Int("cleared", res.Cleared).Msg("existing artwork cleared")
	}

	if s.Catalog == nil {
		return res, errors.New("no catalog configured")
	}
	artworks, err := s.Catalog()
	if err != nil {
		return res, fmt.Errorf("load catalog: %w", err)
	}

	var saved, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for _, a := range artworks {
		g.Go(func() error {
			key, err := repo.SaveArtwork(gctx, s.KV, a)
			if err != nil {
				failed.Add(1)
				lg.Error().Err(err).Str("artwork_id", a.ID).Msg("save failed")
				return nil
			}
			saved.Add(1)
			lg.Debug().Str("key", key.String()).Msg("artwork saved")
			return nil
		})
	}
	_ = g.Wait()

	res.Saved = int(saved.Load())
	res.Failed = int(failed.Load())
	span.SetAttributes(attribute.Int("saved", res.Saved), attribute.Int("failed", res.Failed))
	lg.Info().Int("saved", res.Saved).Int("failed", res.Failed).Msg("static artwork stored")
	return res, nil
}

func (s *AdminService) concurrency() int {
	if s.Concurrency <= 0 {
		return 8
	}
	return s.Concurrency
}

func (s *AdminService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
