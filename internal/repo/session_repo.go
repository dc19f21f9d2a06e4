package repo

import (
	"context"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
)

const nsSession = "session"

// SaveSession stores s under its ID.
func SaveSession(ctx context.Context, kv *KV, s domain.Session) error {
	return kv.Set(ctx, Key{nsSession, s.ID}, s)
}

// GetSession returns the session with id, or ErrNotFound.
func GetSession(ctx context.Context, kv *KV, id string) (*domain.Session, error) {
	var s domain.Session
	found, err := kv.Get(ctx, Key{nsSession, id}, &s)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &s, nil
}

// DeleteSession removes the session with id. Absent ids are ignored.
func DeleteSession(ctx context.Context, kv *KV, id string) error {
	return kv.Delete(ctx, Key{nsSession, id})
}
