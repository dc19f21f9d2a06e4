package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
)

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "nope", "gallery.db")
	db, err := OpenSQLite(bad)
	require.Error(t, err)
	assert.Nil(t, db)
	assert.True(t, errors.Is(err, os.ErrNotExist), "err = %v", err)
}

func TestOpen_SQLiteFileIsTunedAndMigrates(t *testing.T) {
	db, err := Open(" SQLite ", filepath.Join(t.TempDir(), "gallery.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	var mode string
	var busy int
	require.NoError(t, db.Raw("PRAGMA journal_mode;").Row().Scan(&mode))
	require.NoError(t, db.Raw("PRAGMA busy_timeout;").Row().Scan(&busy))
	assert.Equal(t, "wal", strings.ToLower(mode))
	assert.Equal(t, 5000, busy)
	assert.Equal(t, pools[DriverSQLite].maxOpen, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, AutoMigrate(db))
	assert.True(t, db.Migrator().HasTable(&domain.KVEntry{}))
	// Migrating twice is a no-op.
	require.NoError(t, AutoMigrate(db))
}

func TestOpen_RejectsUnknownDriverAndEmptyDSN(t *testing.T) {
	_, err := Open("mysql", "x")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)

	_, err = Open("postgres", "  ")
	assert.ErrorContains(t, err, "empty DATABASE_URL")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"gallery.db?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		sqliteDSN("gallery.db"))
	assert.True(t, strings.HasPrefix(sqliteDSN("file:x?mode=memory"), "file:x?mode=memory&_pragma="))
}
