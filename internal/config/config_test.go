package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.DBDriver != "sqlite" || cfg.Images.Source != ImageSourceFS {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // normalizes to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // normalizes to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")

	// Storage
	t.Setenv("DB_DRIVER", " Postgres ")
	t.Setenv("DATABASE_URL", "postgres://gallery@db/gallery")

	// Site
	t.Setenv("SITE_URL", "https://art.example/")
	t.Setenv("STATIC_DIR", "/srv/static")
	t.Setenv("BLOG_DIR", "/srv/blog")

	// Auth
	t.Setenv("GITHUB_CLIENT_ID", "cid")
	t.Setenv("GITHUB_CLIENT_SECRET", "secret")
	t.Setenv("SESSION_TTL", "12h")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ADMIN_USER_ID", " boss , ,root ")

	// Images
	t.Setenv("IMAGE_SOURCE", "S3")
	t.Setenv("S3_BUCKET", "art")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("S3_PREFIX", "static/")

	// Rate limiting (invalids fall back to defaults)
	t.Setenv("RATE_RPS", "x")
	t.Setenv("RATE_BURST", "nope")

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}
	if cfg.DBDriver != "postgres" || cfg.DatabaseURL != "postgres://gallery@db/gallery" {
		t.Fatalf("storage unexpected: %+v", cfg)
	}
	if cfg.SiteURL != "https://art.example" || cfg.StaticDir != "/srv/static" || cfg.BlogDir != "/srv/blog" {
		t.Fatalf("site unexpected: %+v", cfg)
	}

	a := cfg.Auth
	if a.ClientID != "cid" || a.ClientSecret != "secret" || a.SessionTTL != 12*time.Hour || !a.CookieSecure {
		t.Fatalf("auth unexpected: %+v", a)
	}
	if a.RedirectURL != "https://art.example/callback" || a.APIURL != "https://api.github.com" {
		t.Fatalf("auth urls unexpected: %+v", a)
	}
	if !reflect.DeepEqual(a.Admins, []string{"boss", "root"}) {
		t.Fatalf("admins unexpected: %#v", a.Admins)
	}

	im := cfg.Images
	if im.Source != ImageSourceS3 || im.S3Bucket != "art" || im.S3Region != "us-east-1" || im.S3Endpoint != "http://minio:9000" || im.S3Prefix != "static/" {
		t.Fatalf("images unexpected: %+v", im)
	}

	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_ExplicitRedirectURLWins(t *testing.T) {
	t.Setenv("OAUTH_REDIRECT_URL", "https://auth.example/cb")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Auth.RedirectURL != "https://auth.example/cb" {
		t.Fatalf("redirect = %q", cfg.Auth.RedirectURL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid LOG_LEVEL", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"empty PORT via spaces", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"non-positive timeouts", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"max header bytes <= 0", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"empty DB_PATH", map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}, "DATABASE_URL"},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"relative site url", map[string]string{"SITE_URL": "/gallery"}, "SITE_URL"},
		{"bad site scheme", map[string]string{"SITE_URL": "ftp://x.example"}, "SITE_URL"},
		{"session ttl non-positive", map[string]string{"SESSION_TTL": "0s"}, "SESSION_TTL"},
		{"s3 without bucket", map[string]string{"IMAGE_SOURCE": "s3"}, "S3_BUCKET"},
		{"unknown image source", map[string]string{"IMAGE_SOURCE": "ftp"}, "IMAGE_SOURCE"},
		{"rate rps negative", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"rate burst < 1", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"hsts max age negative", map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{"otel sample ratio out of range", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); !containsErr(err, tc.want) {
				t.Fatalf("expected %s validation error, got: %v", tc.want, err)
			}
		})
	}
}

// --- .env loading ---

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	body := "GALLERY_TEST_FROM_FILE=file\nGALLERY_TEST_PRESET=file\n"
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GALLERY_TEST_FROM_FILE", "")
	os.Unsetenv("GALLERY_TEST_FROM_FILE")
	t.Setenv("GALLERY_TEST_PRESET", "env")

	if err := LoadDotEnv(file, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("GALLERY_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("file value not loaded: %q", got)
	}
	if got := os.Getenv("GALLERY_TEST_PRESET"); got != "env" {
		t.Fatalf("existing env should win: %q", got)
	}
}

func TestLoadDotEnv_DirectoryIsAnError(t *testing.T) {
	if err := LoadDotEnv(t.TempDir()); err == nil {
		t.Fatalf("expected error reading a directory")
	}
}

// --- helpers ---

func TestLookupHelpers(t *testing.T) {
	t.Setenv("H_EMPTY", "")
	t.Setenv("H_STR", "val")
	t.Setenv("H_FLOAT", " 3.5 ")
	t.Setenv("H_INT", "42")
	t.Setenv("H_DUR", "150ms")
	t.Setenv("H_BAD", "nope")

	if getenv("H_EMPTY", "d") != "d" || getenv("H_STR", "d") != "val" || getenv("H_UNSET", "d") != "d" {
		t.Fatalf("getenv fallbacks")
	}
	if getfloat("H_FLOAT", 0) != 3.5 || getfloat("H_BAD", 1.25) != 1.25 {
		t.Fatalf("getfloat")
	}
	if getint("H_INT", 0) != 42 || getint("H_BAD", 7) != 7 || getint("H_EMPTY", 9) != 9 {
		t.Fatalf("getint")
	}
	if getdur("H_DUR", time.Second) != 150*time.Millisecond || getdur("H_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur")
	}
}

func TestGetbool(t *testing.T) {
	cases := map[string]bool{
		"1": true, "true": true, "TRUE": true, " yes ": true, "Y": true, "On": true,
		"0": false, "false": false, "F": false, " no ": false, "n": false, "off": false,
	}
	i := 0
	for v, want := range cases {
		k := fmt.Sprintf("H_BOOL_%d", i)
		i++
		t.Setenv(k, v)
		if got := getbool(k, !want); got != want {
			t.Fatalf("getbool(%q) = %v; want %v", v, got, want)
		}
	}
	t.Setenv("H_BOOL_JUNK", "maybe")
	if !getbool("H_BOOL_JUNK", true) || getbool("H_BOOL_JUNK", false) {
		t.Fatalf("unparseable value must keep the default")
	}
}

func TestSplitCSV(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("empty input should give nil, got %#v", out)
	}
	want := []string{"octocat", "hubot", "mona"}
	if got := splitCSV(" octocat, ,hubot ,  mona  ,"); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

// Ensure tests don't inherit a stray environment.
func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DATABASE_URL", "SITE_URL", "IMAGE_SOURCE", "S3_BUCKET", "OAUTH_REDIRECT_URL"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}
