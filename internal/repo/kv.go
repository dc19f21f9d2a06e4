// Package repo implements the data persistence layer for the gallery. This
// file provides the ordered key-value adapter every repository is built on.
//
// Keys are tuples of string parts. They are encoded into one column by
// joining the parts with the ASCII unit separator, which sorts below every
// printable character, so a prefix scan returns keys in tuple order:
//
//	("artist", "octo", "a1")  ->  "artist\x1focto\x1fa1"
//
// A prefix selector matches the encoded prefix followed by a separator, so
// ("artist", "a") never matches ("artist", "ab", ...).
//
// Values are JSON documents. Errors from the engine propagate unchanged.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across layers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrInvalidKey is returned for empty keys or parts containing the separator.
var ErrInvalidKey = errors.New("invalid key")

const keySep = "\x1f"

// Key is an ordered tuple identifying a record.
type Key []string

// String renders the key with '/' between parts, for logs.
func (k Key) String() string { return strings.Join(k, "/") }

func (k Key) encode() (string, error) {
	if len(k) == 0 {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	for _, p := range k {
		if strings.Contains(p, keySep) {
			return "", fmt.Errorf("%w: part %q contains separator", ErrInvalidKey, p)
		}
	}
	return strings.Join(k, keySep), nil
}

func decodeKey(s string) Key { return Key(strings.Split(s, keySep)) }

// Entry is one listed record.
type Entry struct {
	Key       Key
	Value     json.RawMessage
	UpdatedAt time.Time
}

// KV is the key-value store handle. It is safe for concurrent use; inside
// Atomic the handle is bound to a single transaction.
type KV struct {
	db  *gorm.DB
	now func() time.Time
}

// NewKV wraps an opened, migrated database.
func NewKV(db *gorm.DB) *KV {
	return &KV{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// DB exposes the underlying handle for health checks and instrumentation.
func (kv *KV) DB() *gorm.DB { return kv.db }

// Close releases the underlying connection pool.
func (kv *KV) Close() error {
	sqlDB, err := kv.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get decodes the value at key into dst. It reports false, without error,
// when the key is absent.
func (kv *KV) Get(ctx context.Context, key Key, dst any) (bool, error) {
	k, err := key.encode()
	if err != nil {
		return false, err
	}
	var row domain.KVEntry
	err = kv.db.WithContext(ctx).Where("key = ?", k).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if dst != nil {
		if err := json.Unmarshal([]byte(row.Value), dst); err != nil {
			return true, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return true, nil
}

// Set stores value at key, replacing any existing value.
func (kv *KV) Set(ctx context.Context, key Key, value any) error {
	k, err := key.encode()
	if err != nil {
		return err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	row := domain.KVEntry{Key: k, Value: string(b), UpdatedAt: kv.now()}
	return kv.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

// Delete removes key. Deleting an absent key is not an error.
func (kv *KV) Delete(ctx context.Context, key Key) error {
	k, err := key.encode()
	if err != nil {
		return err
	}
	return kv.db.WithContext(ctx).Where("key = ?", k).Delete(&domain.KVEntry{}).Error
}

// List returns every entry under prefix in key order. An empty prefix lists
// the whole store. The full range is materialised.
func (kv *KV) List(ctx context.Context, prefix Key) ([]Entry, error) {
	q, err := kv.prefixQuery(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var rows []domain.KVEntry
	if err := q.Order("key").Find(&rows).Error; err != nil {
		return nil, err
	}
	// Byte order regardless of the backend's collation.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })

	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, Entry{Key: decodeKey(r.Key), Value: json.RawMessage(r.Value), UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

func (kv *KV) prefixQuery(ctx context.Context, prefix Key) (*gorm.DB, error) {
	q := kv.db.WithContext(ctx).Model(&domain.KVEntry{})
	if len(prefix) == 0 {
		return q, nil
	}
	p, err := prefix.encode()
	if err != nil {
		return nil, err
	}
	p += keySep
	return q.Where("substr(key, 1, ?) = ?", utf8.RuneCountInString(p), p), nil
}

// Atomic runs fn inside one transaction. Writes made through the handle
// passed to fn commit together or not at all.
func (kv *KV) Atomic(ctx context.Context, fn func(tx *KV) error) error {
	return kv.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&KV{db: tx, now: kv.now})
	})
}

// ListValues lists prefix and decodes every value as T.
func ListValues[T any](ctx context.Context, kv *KV, prefix Key) ([]T, error) {
	entries, err := kv.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
