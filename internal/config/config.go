// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database access, sessions, the TMDb and
// release-page upstreams, the ingestion schedule, rate limiting, and
// observability.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/tbourn/go-movie-catalog/internal/utils"
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "movie-catalog")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects the relational store.
type DBConfig struct {
	Driver string // sqlite|mysql
	DSN    string // file path for sqlite, DSN for mysql
}

// AuthConfig defines session and password settings.
type AuthConfig struct {
	JWTSecret    string        // AUTH_JWT_SECRET, >= 32 chars
	SessionTTL   time.Duration // AUTH_SESSION_TTL
	CookieName   string        // AUTH_COOKIE_NAME
	SecureCookie bool          // AUTH_COOKIE_SECURE
	BcryptCost   int           // AUTH_BCRYPT_COST
}

// TMDBConfig defines access to the movie metadata provider.
type TMDBConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string // poster paths are appended to this
	Language     string
	Timeout      time.Duration // per call
	RPS          float64       // client-side throttle, 0 disables
}

// ScraperConfig defines the release announcement page.
type ScraperConfig struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// IngestConfig defines the release ingestion schedule.
type IngestConfig struct {
	Interval    time.Duration
	RunOnStart  bool
	Concurrency int
	LockPath    string // empty disables the cross-process lock
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful drain
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Store
	DB DBConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Users
	Auth AuthConfig

	// Upstreams
	TMDB    TMDBConfig
	Scraper ScraperConfig
	Ingest  IngestConfig

	// Observability
	OTEL OTELConfig
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
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Store
		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			DSN:    getenv("DB_DSN", getenv("DB_PATH", "movies.db")),
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

		// Users
		Auth: AuthConfig{
			JWTSecret:    getenv("AUTH_JWT_SECRET", ""),
			SessionTTL:   getdur("AUTH_SESSION_TTL", 24*time.Hour),
			CookieName:   getenv("AUTH_COOKIE_NAME", "movie_session"),
			SecureCookie: getbool("AUTH_COOKIE_SECURE", false),
			BcryptCost:   getint("AUTH_BCRYPT_COST", 10),
		},

		// Upstreams
		TMDB: TMDBConfig{
			APIKey:       getenv("TMDB_API_KEY", ""),
			BaseURL:      getenv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			ImageBaseURL: getenv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/original"),
			Language:     getenv("TMDB_LANGUAGE", "en-US"),
			Timeout:      getdur("TMDB_TIMEOUT", 10*time.Second),
			RPS:          getfloat("TMDB_RPS", 20),
		},
		Scraper: ScraperConfig{
			URL:       getenv("SCRAPER_URL", "https://www.dvdsreleasedates.com/"),
			Timeout:   getdur("SCRAPER_TIMEOUT", 30*time.Second),
			UserAgent: getenv("SCRAPER_USER_AGENT", "movie-catalog/1.0"),
		},
		Ingest: IngestConfig{
			Interval:    getdur("INGEST_INTERVAL", 24*time.Hour),
			RunOnStart:  getbool("INGEST_RUN_ON_START", false),
			Concurrency: getint("INGEST_CONCURRENCY", 8),
			LockPath:    getenv("INGEST_LOCK_PATH", ""),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "movie-catalog"),
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
	if cfg.DB.Driver == "sqlite3" {
		cfg.DB.Driver = "sqlite"
	}
	cfg.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.TMDB.BaseURL), "/")
	cfg.TMDB.ImageBaseURL = strings.TrimRight(strings.TrimSpace(cfg.TMDB.ImageBaseURL), "/")

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite", "mysql":
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, mysql")
	}
	if strings.TrimSpace(cfg.DB.DSN) == "" {
		return cfg, errors.New("DB_DSN must not be empty")
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
	if len(cfg.Auth.JWTSecret) < 32 {
		return cfg, errors.New("AUTH_JWT_SECRET must be at least 32 characters")
	}
	if cfg.Auth.SessionTTL <= 0 {
		return cfg, errors.New("AUTH_SESSION_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Auth.CookieName) == "" {
		return cfg, errors.New("AUTH_COOKIE_NAME must not be empty")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return cfg, errors.New("AUTH_BCRYPT_COST must be between 4 and 31")
	}
	if cfg.TMDB.BaseURL == "" || cfg.TMDB.ImageBaseURL == "" {
		return cfg, errors.New("TMDB_BASE_URL and TMDB_IMAGE_BASE_URL must not be empty")
	}
	if cfg.TMDB.Timeout <= 0 || cfg.Scraper.Timeout <= 0 {
		return cfg, errors.New("TMDB_TIMEOUT and SCRAPER_TIMEOUT must be positive durations")
	}
	if cfg.TMDB.RPS < 0 {
		return cfg, errors.New("TMDB_RPS must be >= 0")
	}
	if strings.TrimSpace(cfg.Scraper.URL) == "" {
		return cfg, errors.New("SCRAPER_URL must not be empty")
	}
	if cfg.Ingest.Interval <= 0 {
		return cfg, errors.New("INGEST_INTERVAL must be > 0")
	}
	if cfg.Ingest.Concurrency < 1 {
		return cfg, errors.New("INGEST_CONCURRENCY must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- env helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 { return utils.FloatDefault(os.Getenv(k), def) }

func getint(k string, def int) int { return utils.AtoiDefault(os.Getenv(k), def) }

func getbool(k string, def bool) bool { return utils.BoolDefault(os.Getenv(k), def) }

func getdur(k string, def time.Duration) time.Duration {
	return utils.DurationDefault(os.Getenv(k), def)
}

func splitCSV(s string) []string { return utils.SplitCSV(s) }

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
