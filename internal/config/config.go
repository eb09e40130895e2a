package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"trip-window-service/internal/domain"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration assembled from the environment.
// Optional integrations are disabled when their key or URL is empty.
type Config struct {
	Port               string
	DatabaseURL        string
	RedisURL           string
	ORSAPIKey          string
	RapidAPIKey        string
	GeminiAPIKey       string
	GeminiModel        string
	CityCatalogPath    string
	ScoringPolicyPath  string
	ForecastCacheTTL   time.Duration
	StopFetchTimeout   time.Duration
	MaxConcurrentStops int
	LeadTimeDays       int
	HorizonWeeks       int
	Travelers          int
	LogLevel           string
	LogPretty          bool
	Scoring            domain.ScoringPolicy
}

// LoadDotEnv loads .env when present. A missing file is not an error.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Get returns the environment value for key or fallback when unset.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Port:              Get("PORT", "8080"),
		DatabaseURL:       Get("DATABASE_URL", ""),
		RedisURL:          Get("REDIS_URL", ""),
		ORSAPIKey:         Get("ORS_API_KEY", ""),
		RapidAPIKey:       Get("RAPIDAPI_KEY", ""),
		GeminiAPIKey:      Get("GEMINI_API_KEY", ""),
		GeminiModel:       Get("GEMINI_MODEL", "gemini-1.5-flash"),
		CityCatalogPath:   Get("CITY_CATALOG_PATH", ""),
		ScoringPolicyPath: Get("SCORING_POLICY_PATH", ""),
		LogLevel:          Get("LOG_LEVEL", "info"),
		LogPretty:         Get("LOG_PRETTY", "false") == "true",
	}

	var err error
	if cfg.ForecastCacheTTL, err = getDuration("FORECAST_CACHE_TTL", 6*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.StopFetchTimeout, err = getDuration("STOP_FETCH_TIMEOUT", 8*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.MaxConcurrentStops, err = getInt("MAX_CONCURRENT_STOPS", 5); err != nil {
		return Config{}, err
	}
	if cfg.LeadTimeDays, err = getInt("LEAD_TIME_DAYS", 14); err != nil {
		return Config{}, err
	}
	if cfg.HorizonWeeks, err = getInt("HORIZON_WEEKS", 52); err != nil {
		return Config{}, err
	}
	if cfg.Travelers, err = getInt("TRAVELERS", 2); err != nil {
		return Config{}, err
	}

	if cfg.MaxConcurrentStops < 1 {
		return Config{}, fmt.Errorf("config: MAX_CONCURRENT_STOPS must be >= 1, got %d", cfg.MaxConcurrentStops)
	}
	if cfg.HorizonWeeks < 1 || cfg.HorizonWeeks > 104 {
		return Config{}, fmt.Errorf("config: HORIZON_WEEKS must be between 1 and 104, got %d", cfg.HorizonWeeks)
	}
	if cfg.LeadTimeDays < 0 {
		return Config{}, fmt.Errorf("config: LEAD_TIME_DAYS must be >= 0, got %d", cfg.LeadTimeDays)
	}
	if cfg.Travelers < 1 {
		return Config{}, fmt.Errorf("config: TRAVELERS must be >= 1, got %d", cfg.Travelers)
	}

	cfg.Scoring, err = LoadScoringPolicy(cfg.ScoringPolicyPath)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadScoringPolicy returns the default policy overlaid with the YAML file at
// path. An empty path yields the defaults.
func LoadScoringPolicy(path string) (domain.ScoringPolicy, error) {
	policy := domain.DefaultScoringPolicy()
	if path == "" {
		return policy, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return domain.ScoringPolicy{}, fmt.Errorf("load scoring policy: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &policy); err != nil {
		return domain.ScoringPolicy{}, fmt.Errorf("load scoring policy: parse %q: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return domain.ScoringPolicy{}, fmt.Errorf("load scoring policy %q: %w", path, err)
	}

	return policy, nil
}
