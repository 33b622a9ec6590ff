// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the
// HTTP server, logging, catalog and storage paths, content generation, the
// review workflow, the pre-generation scheduler, rate limiting and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Review policies.
const (
	ReviewManual = "manual"
	ReviewAuto   = "auto"
)

// Storage drivers.
const (
	StorageSQLite = "sqlite"
	StorageJSON   = "json"
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "daily-tiers")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// GenerationConfig describes the chat-completions backend.
type GenerationConfig struct {
	APIKey      string        // DEEPSEEK_API_KEY or GENERATION_API_KEY
	BaseURL     string        // GENERATION_BASE_URL
	Model       string        // GENERATION_MODEL
	Temperature float64       // GENERATION_TEMPERATURE
	MaxTokens   int           // GENERATION_MAX_TOKENS
	Timeout     time.Duration // GENERATION_TIMEOUT, per call
	Language    string        // GENERATION_LANGUAGE, BCP 47 tag of the output language
}

// ReviewConfig holds the approval policy and retry settings.
type ReviewConfig struct {
	Policy      string        // REVIEW_POLICY manual|auto
	MaxAttempts int           // GENERATION_MAX_RETRIES, total attempts per request
	RetryDelay  time.Duration // GENERATION_RETRY_DELAY
	Exponential bool          // GENERATION_RETRY_EXPONENTIAL
}

// ValidationConfig holds content quality thresholds.
type ValidationConfig struct {
	MinShort        int     // MIN_SHORT_LENGTH (runes)
	MinMedium       int     // MIN_MEDIUM_LENGTH
	MinLong         int     // MIN_LONG_LENGTH
	MaxNewlineRatio float64 // MAX_NEWLINE_RATIO
}

// SchedulerConfig controls background pre-generation.
type SchedulerConfig struct {
	Enabled     bool          // SCHEDULER_ENABLED
	WarmupDelay time.Duration // SCHEDULER_WARMUP_DELAY
	Interval    time.Duration // SCHEDULER_INTERVAL
	WindowDays  int           // SCHEDULER_WINDOW_DAYS, days after today
	BatchSize   int           // SCHEDULER_BATCH_SIZE
	Concurrency int           // SCHEDULER_CONCURRENCY, generations in flight within a batch
	ItemDelay   time.Duration // SCHEDULER_ITEM_DELAY
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	SummaryWait       time.Duration // how long a summary request waits on generation; below WriteTimeout
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Data
	CatalogPath    string        // JSON or YAML item catalog
	StorageDriver  string        // sqlite|json
	DBPath         string        // SQLite path
	DataDir        string        // directory for JSON documents
	Timezone       string        // IANA zone for calendar dates, "Local" by default
	CooldownWindow time.Duration // repeat window for the fresh pick

	Generation GenerationConfig
	Review     ReviewConfig
	Validation ValidationConfig
	Scheduler  SchedulerConfig

	// Admin
	AdminToken string // ADMIN_TOKEN; empty disables the check

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
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		SummaryWait:       getdur("SUMMARY_WAIT", 15*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Data
		CatalogPath:    getenv("CATALOG_PATH", "data/catalog.json"),
		StorageDriver:  strings.ToLower(getenv("STORAGE_DRIVER", StorageSQLite)),
		DBPath:         getenv("DB_PATH", "data/app.db"),
		DataDir:        getenv("DATA_DIR", "data"),
		Timezone:       getenv("TIMEZONE", "Local"),
		CooldownWindow: getdur("COOLDOWN_WINDOW", 14*24*time.Hour),

		Generation: GenerationConfig{
			APIKey:      getenv("DEEPSEEK_API_KEY", getenv("GENERATION_API_KEY", "")),
			BaseURL:     strings.TrimRight(getenv("GENERATION_BASE_URL", "https://api.deepseek.com"), "/"),
			Model:       getenv("GENERATION_MODEL", "deepseek-chat"),
			Temperature: getfloat("GENERATION_TEMPERATURE", 0.7),
			MaxTokens:   getint("GENERATION_MAX_TOKENS", 8000),
			Timeout:     getdur("GENERATION_TIMEOUT", 180*time.Second),
			Language:    getenv("GENERATION_LANGUAGE", "zh"),
		},
		Review: ReviewConfig{
			Policy:      strings.ToLower(getenv("REVIEW_POLICY", ReviewManual)),
			MaxAttempts: getint("GENERATION_MAX_RETRIES", 3),
			RetryDelay:  getdur("GENERATION_RETRY_DELAY", 2*time.Second),
			Exponential: getbool("GENERATION_RETRY_EXPONENTIAL", false),
		},
		Validation: ValidationConfig{
			MinShort:        getint("MIN_SHORT_LENGTH", 200),
			MinMedium:       getint("MIN_MEDIUM_LENGTH", 800),
			MinLong:         getint("MIN_LONG_LENGTH", 1500),
			MaxNewlineRatio: getfloat("MAX_NEWLINE_RATIO", 0.02),
		},
		Scheduler: SchedulerConfig{
			Enabled:     getbool("SCHEDULER_ENABLED", true),
			WarmupDelay: getdur("SCHEDULER_WARMUP_DELAY", 10*time.Second),
			Interval:    getdur("SCHEDULER_INTERVAL", 24*time.Hour),
			WindowDays:  getint("SCHEDULER_WINDOW_DAYS", 14),
			BatchSize:   getint("SCHEDULER_BATCH_SIZE", 3),
			Concurrency: getint("SCHEDULER_CONCURRENCY", 1),
			ItemDelay:   getdur("SCHEDULER_ITEM_DELAY", 2*time.Second),
		},

		AdminToken: getenv("ADMIN_TOKEN", ""),

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
			ServiceName: getenv("OTEL_SERVICE_NAME", "daily-tiers"),
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
	if cfg.SummaryWait <= 0 || cfg.SummaryWait >= cfg.WriteTimeout {
		return cfg, errors.New("SUMMARY_WAIT must be > 0 and below WRITE_TIMEOUT")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.CatalogPath) == "" {
		return cfg, errors.New("CATALOG_PATH must not be empty")
	}
	switch cfg.StorageDriver {
	case StorageSQLite:
		if strings.TrimSpace(cfg.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case StorageJSON:
		if strings.TrimSpace(cfg.DataDir) == "" {
			return cfg, errors.New("DATA_DIR must not be empty")
		}
	default:
		return cfg, errors.New("STORAGE_DRIVER must be one of: sqlite, json")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return cfg, errors.New("TIMEZONE must be a valid IANA zone name")
	}
	if cfg.CooldownWindow <= 0 {
		return cfg, errors.New("COOLDOWN_WINDOW must be > 0")
	}
	if cfg.Generation.Timeout <= 0 {
		return cfg, errors.New("GENERATION_TIMEOUT must be > 0")
	}
	if cfg.Generation.MaxTokens < 1 {
		return cfg, errors.New("GENERATION_MAX_TOKENS must be >= 1")
	}
	if cfg.Generation.Temperature < 0 || cfg.Generation.Temperature > 2 {
		return cfg, errors.New("GENERATION_TEMPERATURE must be in [0,2]")
	}
	switch cfg.Review.Policy {
	case ReviewManual, ReviewAuto:
	default:
		return cfg, errors.New("REVIEW_POLICY must be one of: manual, auto")
	}
	if cfg.Review.MaxAttempts < 1 {
		return cfg, errors.New("GENERATION_MAX_RETRIES must be >= 1")
	}
	if cfg.Review.RetryDelay < 0 {
		return cfg, errors.New("GENERATION_RETRY_DELAY must be >= 0")
	}
	if cfg.Validation.MinShort < 0 || cfg.Validation.MinMedium < 0 || cfg.Validation.MinLong < 0 {
		return cfg, errors.New("minimum lengths must be >= 0")
	}
	if cfg.Validation.MaxNewlineRatio < 0 || cfg.Validation.MaxNewlineRatio > 1 {
		return cfg, errors.New("MAX_NEWLINE_RATIO must be in [0,1]")
	}
	if cfg.Scheduler.Interval <= 0 {
		return cfg, errors.New("SCHEDULER_INTERVAL must be > 0")
	}
	if cfg.Scheduler.WarmupDelay < 0 || cfg.Scheduler.ItemDelay < 0 {
		return cfg, errors.New("scheduler delays must be >= 0")
	}
	if cfg.Scheduler.WindowDays < 0 {
		return cfg, errors.New("SCHEDULER_WINDOW_DAYS must be >= 0")
	}
	if cfg.Scheduler.BatchSize < 1 {
		return cfg, errors.New("SCHEDULER_BATCH_SIZE must be >= 1")
	}
	if cfg.Scheduler.Concurrency < 1 || cfg.Scheduler.Concurrency > cfg.Scheduler.BatchSize {
		return cfg, errors.New("SCHEDULER_CONCURRENCY must be between 1 and SCHEDULER_BATCH_SIZE")
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

// Location resolves the configured timezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
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
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
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
