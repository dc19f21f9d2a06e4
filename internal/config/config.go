// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings such as
// server timeouts, logging, storage backend, GitHub sign-in, image sources,
// rate limiting and observability.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Image source kinds for IMAGE_SOURCE.
const (
	ImageSourceFS = "fs"
	ImageSourceS3 = "s3"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-artwork-gallery")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AuthConfig holds the GitHub OAuth app and session settings.
type AuthConfig struct {
	ClientID     string        // GITHUB_CLIENT_ID
	ClientSecret string        // GITHUB_CLIENT_SECRET
	RedirectURL  string        // OAUTH_REDIRECT_URL (defaults to SITE_URL + /callback)
	APIURL       string        // GITHUB_API_URL
	SessionTTL   time.Duration // SESSION_TTL
	CookieSecure bool          // COOKIE_SECURE
	Admins       []string      // ADMIN_USER_ID, comma separated logins
}

// ImageConfig selects where artwork images are read from for Open Graph
// rendering.
type ImageConfig struct {
	Source            string // fs|s3
	S3Bucket          string
	S3Region          string
	S3Endpoint        string // for MinIO or other S3-compatible stores
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Prefix          string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route

	// Storage
	DBDriver    string // sqlite|postgres
	DBPath      string // SQLite path
	DatabaseURL string // PostgreSQL DSN

	// Site
	SiteURL   string // absolute origin used in feeds and og:image
	StaticDir string // artwork images on disk
	BlogDir   string // markdown posts; empty disables /blog

	Auth   AuthConfig
	Images ImageConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none are
// given) into the process environment. Variables already set win. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),

		// Storage
		DBDriver:    strings.ToLower(strings.TrimSpace(getenv("DB_DRIVER", "sqlite"))),
		DBPath:      getenv("DB_PATH", "gallery.db"),
		DatabaseURL: getenv("DATABASE_URL", ""),

		// Site
		SiteURL:   strings.TrimRight(getenv("SITE_URL", "http://localhost:8080"), "/"),
		StaticDir: getenv("STATIC_DIR", "static"),
		BlogDir:   getenv("BLOG_DIR", ""),

		Auth: AuthConfig{
			ClientID:     getenv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getenv("GITHUB_CLIENT_SECRET", ""),
			RedirectURL:  getenv("OAUTH_REDIRECT_URL", ""),
			APIURL:       strings.TrimRight(getenv("GITHUB_API_URL", "https://api.github.com"), "/"),
			SessionTTL:   getdur("SESSION_TTL", 7*24*time.Hour),
			CookieSecure: getbool("COOKIE_SECURE", false),
			Admins:       splitCSV(getenv("ADMIN_USER_ID", "")),
		},

		Images: ImageConfig{
			Source:            strings.ToLower(strings.TrimSpace(getenv("IMAGE_SOURCE", ImageSourceFS))),
			S3Bucket:          getenv("S3_BUCKET", ""),
			S3Region:          getenv("S3_REGION", "us-east-1"),
			S3Endpoint:        getenv("S3_ENDPOINT", ""),
			S3AccessKeyID:     getenv("S3_ACCESS_KEY_ID", ""),
			S3SecretAccessKey: getenv("S3_SECRET_ACCESS_KEY", ""),
			S3Prefix:          getenv("S3_PREFIX", ""),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-artwork-gallery"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Auth.RedirectURL == "" {
		cfg.Auth.RedirectURL = cfg.SiteURL + "/callback"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DBDriver {
	case "sqlite":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if u, err := url.Parse(cfg.SiteURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return cfg, errors.New("SITE_URL must be an absolute http(s) URL")
	}
	if cfg.Auth.SessionTTL <= 0 {
		return cfg, errors.New("SESSION_TTL must be > 0")
	}
	switch cfg.Images.Source {
	case ImageSourceFS:
	case ImageSourceS3:
		if strings.TrimSpace(cfg.Images.S3Bucket) == "" {
			return cfg, errors.New("S3_BUCKET is required when IMAGE_SOURCE=s3")
		}
	default:
		return cfg, errors.New("IMAGE_SOURCE must be one of: fs, s3")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// lookup returns the parsed value of env var k, or def when k is unset,
// empty or does not parse.
func lookup[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	out, err := parse(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return out
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int { return lookup(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return lookup(k, def, time.ParseDuration) }

func getfloat(k string, def float64) float64 {
	return lookup(k, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func getbool(k string, def bool) bool { return lookup(k, def, parseBool) }

// parseBool accepts the strconv forms plus yes/no, y/n and on/off.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
