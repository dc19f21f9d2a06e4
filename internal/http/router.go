// Package httpapi wires the HTTP transport (Gin) to the gallery services,
// middleware and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, sign-in resolution, logging/redaction, panic
// recovery, compression, metrics, CORS, security headers and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → identity → logging → recovery)
//   - Deterministic router setup; the store and image source are injected
package httpapi

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-artwork-gallery/internal/auth"
	"github.com/tbourn/go-artwork-gallery/internal/blog"
	"github.com/tbourn/go-artwork-gallery/internal/catalog"
	"github.com/tbourn/go-artwork-gallery/internal/config"
	_ "github.com/tbourn/go-artwork-gallery/internal/docs" // registers the OpenAPI document
	"github.com/tbourn/go-artwork-gallery/internal/http/handlers"
	"github.com/tbourn/go-artwork-gallery/internal/http/middleware"
	"github.com/tbourn/go-artwork-gallery/internal/imagestore"
	"github.com/tbourn/go-artwork-gallery/internal/repo"
	"github.com/tbourn/go-artwork-gallery/internal/services"
	"github.com/tbourn/go-artwork-gallery/internal/web"
)

// ogPathRegex matches the Open Graph image route, which serves PNGs that do
// not benefit from gzip.
const ogPathRegex = `^/piece/[^/]+/og$`

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. Every record is read from and written to kv; Open Graph previews
// read artwork images from images.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identify: resolve the session cookie to a GitHub user
//  4. ContextLogger: request-scoped logger (request id + user)
//  5. RedactingLogger: access log with cookie/OAuth scrubbing
//  6. Recovery: capture panics after logger
//  7. Body size limiter
//  8. Gzip (OG images excluded)
//  9. Metrics
//  10. Rate limiter (per user/IP; health, metrics and assets exempt)
//  11. CORS and Security headers
func RegisterRoutes(r *gin.Engine, kv *repo.KV, images imagestore.Source, cfg config.Config) error {
	r.HandleMethodNotAllowed = true

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	gh := auth.NewGitHub(auth.Config{
		ClientID:      cfg.Auth.ClientID,
		ClientSecret:  cfg.Auth.ClientSecret,
		RedirectURL:   cfg.Auth.RedirectURL,
		APIURL:        cfg.Auth.APIURL,
		SessionTTL:    cfg.Auth.SessionTTL,
		SecureCookies: cfg.Auth.CookieSecure,
	}, kv)

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// Infrastructure and asset paths skip both sign-in resolution and limiting.
	exempt := middleware.SkipPaths("/health", "/metrics", "/static/", "/art/")

	// 3) Who is asking
	r.Use(auth.Identify(gh, exempt))

	// 4) Request-scoped logger for handlers and services
	r.Use(middleware.ContextLogger())

	// 5) Access log with redaction (session cookie, OAuth code/state)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 6) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 7) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 8) Compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{ogPathRegex})))

	// 9) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 10) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	rl.Skip = exempt
	r.Use(rl.Handler())

	// 11) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:            cfg.Security.EnableHSTS,
		HSTSMaxAge:            cfg.Security.HSTSMaxAge,
		NoStorePaths:          []string{"/signin", "/callback", "/signout"},
		EnablePolicy:          true,
		ContentSecurityPolicy: middleware.DefaultCSP,
	}))

	// Fallbacks
	r.NoRoute(handlers.NotFound)
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Assets
	r.StaticFS("/static", http.FS(web.Static()))
	if cfg.Images.Source == config.ImageSourceFS && cfg.StaticDir != "" {
		r.Static("/art", filepath.Join(cfg.StaticDir, "art"))
	}

	// Dependency injection: services ← kv
	deps := handlers.Deps{
		Artwork:   &services.ArtworkService{KV: kv},
		Reactions: &services.ReactionService{KV: kv},
		Admin: &services.AdminService{
			KV:      kv,
			Admins:  cfg.Auth.Admins,
			Catalog: catalog.Load,
		},
		Auth:    gh,
		Images:  images,
		SiteURL: cfg.SiteURL,
	}
	if cfg.BlogDir != "" {
		deps.Blog = blog.NewStore(cfg.BlogDir)
	}
	h := handlers.New(deps)

	// Pages
	r.GET("/", h.Index)
	r.GET("/piece/:id", h.Piece)
	r.GET("/piece/:id/og", h.OpenGraph)
	r.GET("/artist/:username", h.Artist)
	r.GET("/blog/:slug", h.BlogPost)
	r.GET("/feed", h.Feed)

	// Reactions
	r.GET("/piece/:id/like", h.GetReactions)
	r.POST("/piece/:id/like", h.React)
	r.DELETE("/piece/:id/like", h.Unreact)

	// Sign-in
	r.GET("/signin", h.SignIn)
	r.GET("/callback", h.Callback)
	r.GET("/signout", h.SignOut)

	// Admin
	r.Any("/admin", h.Admin)

	// JSON API
	api := groupWithPrefix(r, "/api")
	{
		api.GET("/artwork", h.ListArtwork)
	}
	return nil
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
