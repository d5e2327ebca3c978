// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, provider credentials,
// generation tuning, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-learnhub-backend/internal/sysutil"
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-learnhub-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ProvidersConfig holds credentials and tuning for the external
// video-search and LLM providers.
type ProvidersConfig struct {
	YouTubeAPIKey string // YOUTUBE_API_KEY
	GeminiAPIKey  string // GEMINI_API_KEY
	GeminiModel   string // GEMINI_MODEL

	SearchLimit  int // candidates fetched per search before ranking
	TopK         int // videos kept per topic after ranking
	QuizPerVideo int // quiz questions generated per video

	RetryMaxTries   uint          // attempts per provider call
	RetryInterval   time.Duration // initial backoff interval
	RetryMaxElapsed time.Duration // wall-clock cap for one retry loop
}

// RankConfig holds the ranking formula weights.
type RankConfig struct {
	Views        float64 // RANK_W_VIEWS
	LikeRatio    float64 // RANK_W_LIKES
	CommentRatio float64 // RANK_W_COMMENTS
	Recency      float64 // RANK_W_RECENCY
}

// CacheConfig holds the optional Redis read-through cache settings.
// An empty Addr disables caching entirely.
type CacheConfig struct {
	Addr string        // REDIS_ADDR, e.g. "localhost:6379"
	TTL  time.Duration // CACHE_TTL
}

// JobsConfig holds the background pre-population settings. An empty
// Schedule disables the cron job.
type JobsConfig struct {
	Schedule string // CRON_PREPOPULATE, standard 5-field cron spec
	// Topics lists "search term:learning goal" pairs, comma separated,
	// e.g. "go:beginner,react:advanced".
	Topics []TopicPair
}

// TopicPair is one pre-configured topic to keep populated.
type TopicPair struct {
	SearchTerm   string
	LearningGoal string
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
	APIBasePath    string // base path for API routes

	// App
	DBPath  string        // SQLite path
	LockTTL time.Duration // generation lease lifetime before takeover

	Providers ProvidersConfig
	Rank      RankConfig
	Cache     CacheConfig
	Jobs      JobsConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

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
	topics, err := parseTopics(getenv("PREPOPULATE_TOPICS", ""))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:  getenv("DB_PATH", "learnhub.db"),
		LockTTL: getdur("GENERATION_LOCK_TTL", 10*time.Minute),

		Providers: ProvidersConfig{
			YouTubeAPIKey:   getenv("YOUTUBE_API_KEY", ""),
			GeminiAPIKey:    getenv("GEMINI_API_KEY", ""),
			GeminiModel:     getenv("GEMINI_MODEL", "gemini-1.5-flash"),
			SearchLimit:     getint("SEARCH_LIMIT", 20),
			TopK:            getint("TOP_K", 5),
			QuizPerVideo:    getint("QUIZ_PER_VIDEO", 3),
			RetryMaxTries:   uint(getint("PROVIDER_RETRY_MAX_TRIES", 4)),
			RetryInterval:   getdur("PROVIDER_RETRY_INTERVAL", 500*time.Millisecond),
			RetryMaxElapsed: getdur("PROVIDER_RETRY_MAX_ELAPSED", 30*time.Second),
		},

		Rank: RankConfig{
			Views:        getfloat("RANK_W_VIEWS", 0.4),
			LikeRatio:    getfloat("RANK_W_LIKES", 0.3),
			CommentRatio: getfloat("RANK_W_COMMENTS", 0.1),
			Recency:      getfloat("RANK_W_RECENCY", 0.2),
		},

		Cache: CacheConfig{
			Addr: getenv("REDIS_ADDR", ""),
			TTL:  getdur("CACHE_TTL", 15*time.Minute),
		},

		Jobs: JobsConfig{
			Schedule: getenv("CRON_PREPOPULATE", ""),
			Topics:   topics,
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
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-learnhub-backend"),
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
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.LockTTL < 0 {
		return cfg, errors.New("GENERATION_LOCK_TTL must be >= 0")
	}
	if cfg.Providers.SearchLimit < 1 || cfg.Providers.SearchLimit > 50 {
		return cfg, errors.New("SEARCH_LIMIT must be in [1,50]")
	}
	if cfg.Providers.TopK < 1 || cfg.Providers.TopK > cfg.Providers.SearchLimit {
		return cfg, errors.New("TOP_K must be >= 1 and <= SEARCH_LIMIT")
	}
	if cfg.Providers.QuizPerVideo < 1 {
		return cfg, errors.New("QUIZ_PER_VIDEO must be >= 1")
	}
	if w := cfg.Rank; w.Views < 0 || w.LikeRatio < 0 || w.CommentRatio < 0 || w.Recency < 0 {
		return cfg, errors.New("ranking weights must be >= 0")
	}
	if cfg.Cache.TTL <= 0 {
		return cfg, errors.New("CACHE_TTL must be > 0")
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
	if cfg.Jobs.Schedule != "" && len(cfg.Jobs.Topics) == 0 {
		return cfg, errors.New("CRON_PREPOPULATE set but PREPOPULATE_TOPICS is empty")
	}

	return cfg, nil
}

// parseTopics decodes "term:goal,term:goal" into pairs. Whitespace around
// entries is tolerated; empty input yields no topics.
func parseTopics(s string) ([]TopicPair, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []TopicPair
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		term, goal, ok := strings.Cut(entry, ":")
		term, goal = strings.TrimSpace(term), strings.TrimSpace(goal)
		if !ok || term == "" || goal == "" {
			return nil, fmt.Errorf("PREPOPULATE_TOPICS: bad entry %q (want term:goal)", entry)
		}
		out = append(out, TopicPair{SearchTerm: term, LearningGoal: goal})
	}
	return out, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if sysutil.IsTruthy(v) {
			return true
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

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
