// Package domain defines the gallery's core types: artwork and artists,
// emoji reactions and the composite entries built from them, GitHub users and
// their sessions, and the single GORM model that backs the ordered key-value
// store every other record lives in.
package domain

import "time"

// KVEntry is one row of the ordered key-value store.
//
// Fields:
//   - Key: the encoded tuple key (parts joined by a unit separator). Rows are
//     listed in Key order, which is what makes prefix scans ordered.
//   - Value: the JSON document stored under Key.
//   - UpdatedAt: last write time, managed by GORM.
type KVEntry struct {
	Key       string    `gorm:"type:varchar(512);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"index"`
}

// TableName returns the database table name for KVEntry.
func (KVEntry) TableName() string { return "kv_entries" }
