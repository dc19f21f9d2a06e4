package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
	"github.com/tbourn/go-artwork-gallery/internal/repo"
)

func newTestKV(t *testing.T) *repo.KV {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

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

func seedArtwork(t *testing.T, kv *repo.KV, ids ...string) []domain.Artwork {
	t.Helper()
	out := make([]domain.Artwork, 0, len(ids))
	for _, id := range ids {
		a := domain.Artwork{
			ID:     id,
			Date:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			Title:  "Title " + id,
			Image:  "/art/" + id + ".png",
			Artist: domain.Artist{ID: "artist", Name: "Artist"},
		}
		if _, err := repo.SaveArtwork(context.Background(), kv, a); err != nil {
			t.Fatalf("seed artwork %s: %v", id, err)
		}
		out = append(out, a)
	}
	return out
}

func react(t *testing.T, kv *repo.KV, artworkID, user string, r domain.Reaction) {
	t.Helper()
	if err := repo.SetReaction(context.Background(), kv, artworkID, user, r); err != nil {
		t.Fatalf("seed reaction: %v", err)
	}
}
