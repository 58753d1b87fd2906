package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingCredential is returned by constructors that need a provider key they were not given.
var ErrMissingCredential = errors.New("missing provider credential")

// Cache backends selectable through CACHE_BACKEND.
const (
	CacheBackendPostgres = "postgres"
	CacheBackendSqlite   = "sqlite"
	CacheBackendRedis    = "redis"
	CacheBackendNone     = "none"
)

// Config is built once at startup and passed to every constructor.
type Config struct {
	Port string

	CacheBackend string
	DatabaseURL  string
	SqlitePath   string
	RedisAddr    string
	RedisPass    string
	RedisDB      int

	GoogleMapsAPIKey string
	TmapAppKey       string

	ProviderTimeout    time.Duration
	RouteCacheTTL      time.Duration
	CacheSweepInterval time.Duration
	PlaceMemoTTL       time.Duration
}

// LoadDotEnv reads .env when present. A missing file is not an error.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Get returns the trimmed environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s=%q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, v)
	}
	return d, nil
}

// Load reads the process environment into a Config.
func Load() (Config, error) {
	cfg := Config{
		Port:             Get("PORT", "8080"),
		CacheBackend:     strings.ToLower(Get("CACHE_BACKEND", CacheBackendSqlite)),
		DatabaseURL:      Get("DATABASE_URL", ""),
		SqlitePath:       Get("SQLITE_PATH", "data/route_cache.db"),
		RedisAddr:        Get("REDIS_HOST", "127.0.0.1") + ":" + Get("REDIS_PORT", "6379"),
		RedisPass:        Get("REDIS_PASS", ""),
		GoogleMapsAPIKey: Get("GOOGLE_MAPS_API_KEY", ""),
		TmapAppKey:       Get("TMAP_APP_KEY", ""),
	}

	if v := Get("REDIS_DB", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("config: invalid REDIS_DB=%q", v)
		}
		cfg.RedisDB = n
	}

	var err error
	if cfg.ProviderTimeout, err = getDuration("PROVIDER_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RouteCacheTTL, err = getDuration("ROUTE_CACHE_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CacheSweepInterval, err = getDuration("CACHE_SWEEP_INTERVAL", 6*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.PlaceMemoTTL, err = getDuration("PLACE_MEMO_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}

	switch cfg.CacheBackend {
	case CacheBackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("config: DATABASE_URL is required for CACHE_BACKEND=postgres")
		}
	case CacheBackendSqlite, CacheBackendRedis, CacheBackendNone:
	default:
		return Config{}, fmt.Errorf("config: unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}

	return cfg, nil
}
