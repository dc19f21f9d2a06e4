// Command storestatic loads the static artwork dataset into the configured
// store, the same operation the admin page runs.
//
// Usage:
//
//	storestatic [--clear] [--file artwork.json] [--concurrency 8]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-artwork-gallery/internal/catalog"
	"github.com/tbourn/go-artwork-gallery/internal/config"
	"github.com/tbourn/go-artwork-gallery/internal/domain"
	"github.com/tbourn/go-artwork-gallery/internal/repo"
	"github.com/tbourn/go-artwork-gallery/internal/services"
	"github.com/tbourn/go-artwork-gallery/internal/sysutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("storestatic failed")
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("storestatic", flag.ContinueOnError)
	fs.SetOutput(out)
	clearFirst := fs.Bool("clear", false, "delete every saved artwork before loading")
	file := fs.String("file", "", "load this JSON dataset instead of the embedded one")
	concurrency := fs.Int("concurrency", 8, "parallel saves")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	sysutil.SetLogLevel(cfg.LogLevel)
	logger := sysutil.NewLogger(os.Stderr, cfg.LogPretty, "storestatic")
	ctx = logger.WithContext(ctx)

	dsn := cfg.DBPath
	if cfg.DBDriver == repo.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	db, err := repo.Open(cfg.DBDriver, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	kv := repo.NewKV(db)
	defer kv.Close()

	load := catalog.Load
	if *file != "" {
		load = func() ([]domain.Artwork, error) { return catalog.LoadFile(*file) }
	}
	svc := &services.AdminService{KV: kv, Catalog: load, Concurrency: *concurrency}

	res, err := svc.StoreStatic(ctx, *clearFirst)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
