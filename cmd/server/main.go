// Command server runs the artwork gallery HTTP server.
//
// @title          Artwork Gallery API
// @version        1.0
// @description    Artwork listing, reactions and feeds for the gallery.
// @license.name   MIT
// @BasePath       /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-artwork-gallery/internal/config"
	httpapi "github.com/tbourn/go-artwork-gallery/internal/http"
	"github.com/tbourn/go-artwork-gallery/internal/imagestore"
	"github.com/tbourn/go-artwork-gallery/internal/observability"
	"github.com/tbourn/go-artwork-gallery/internal/repo"
	"github.com/tbourn/go-artwork-gallery/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	gin.SetMode(cfg.GinMode)
	sysutil.SetLogLevel(cfg.LogLevel)
	logger := sysutil.NewLogger(os.Stdout, cfg.LogPretty, cfg.OTEL.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version))
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			logger.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	kv, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Warn().Err(err).Msg("close store")
		}
	}()

	images, err := openImages(ctx, cfg)
	if err != nil {
		return err
	}

	r := gin.New()
	if err := httpapi.RegisterRoutes(r, kv, images, cfg); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("db_driver", cfg.DBDriver).
			Str("image_source", cfg.Images.Source).
			Str("version", version).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info().Msg("stopped")
	return nil
}

// openStore connects to the configured backend, adds query tracing and
// migrates the key-value table.
func openStore(cfg config.Config) (*repo.KV, error) {
	dsn := cfg.DBPath
	if cfg.DBDriver == repo.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	db, err := repo.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	if err := observability.InstrumentDB(db, nil); err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return repo.NewKV(db), nil
}

func openImages(ctx context.Context, cfg config.Config) (imagestore.Source, error) {
	if cfg.Images.Source != config.ImageSourceS3 {
		return imagestore.Dir{Root: cfg.StaticDir}, nil
	}
	src, err := imagestore.NewS3(ctx, imagestore.S3Config{
		Bucket:          cfg.Images.S3Bucket,
		Region:          cfg.Images.S3Region,
		Endpoint:        cfg.Images.S3Endpoint,
		AccessKeyID:     cfg.Images.S3AccessKeyID,
		SecretAccessKey: cfg.Images.S3SecretAccessKey,
		Prefix:          cfg.Images.S3Prefix,
	})
	if err != nil {
		return nil, err
	}
	return src, nil
}
