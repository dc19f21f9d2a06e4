// Package repo implements the data persistence layer for the gallery, backed
// by GORM. Every record lives in a single ordered key-value table; this file
// opens SQLite (pure Go driver) or PostgreSQL and migrates the schema.
package repo

import (
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
)

// Supported values for the DB_DRIVER setting.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnsupportedDriver is returned by Open for an unknown driver name.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

type poolLimits struct {
	maxOpen, maxIdle int
	idleTime, life   time.Duration
}

var pools = map[string]poolLimits{
	DriverSQLite:   {maxOpen: 10, maxIdle: 10, idleTime: 5 * time.Minute, life: 30 * time.Minute},
	DriverPostgres: {maxOpen: 20, maxIdle: 10, idleTime: 5 * time.Minute, life: 30 * time.Minute},
}

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
}

// Open connects to the configured backend. dsn is a file path for SQLite and
// a connection string for PostgreSQL.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		return OpenSQLite(dsn)
	case DriverPostgres:
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// OpenSQLite opens (or creates) the database file at path. The parent
// directory must exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	if err := applyPool(db, pools[DriverSQLite]); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenPostgres connects through the pgx-backed GORM driver.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres: empty DATABASE_URL")
	}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if err := applyPool(db, pools[DriverPostgres]); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates the key-value table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.KVEntry{})
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// gormConfig routes GORM's warnings (slow queries, errors) through the
// process zerolog logger. Missing keys are normal for the store and are not
// reported.
func gormConfig() *gorm.Config {
	w := log.Logger.With().Str("component", "gorm").Logger()
	return &gorm.Config{
		Logger: logger.New(stdlog.New(&w, "", 0), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

func applyPool(db *gorm.DB, p poolLimits) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(p.maxOpen)
	sqlDB.SetMaxIdleConns(p.maxIdle)
	sqlDB.SetConnMaxIdleTime(p.idleTime)
	sqlDB.SetConnMaxLifetime(p.life)
	return nil
}
