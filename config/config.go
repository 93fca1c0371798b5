package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Fetch    FetchConfig
	Pipeline PipelineConfig
	Server   ServerConfig
	Refresh  RefreshConfig

	DatabaseURL string
	DBPath      string
	LogPath     string
}

type FetchConfig struct {
	Timeout           time.Duration
	MaxAttempts       int
	MinDelay          time.Duration
	MaxDelay          time.Duration
	SkipOnRateLimit   bool
	RateLimitCooldown time.Duration
	ProxyURL          string
}

type PipelineConfig struct {
	MaxListingsPerPage int
	MaxResults         int
	FallbackMinResults int
	SynthesizePrices   bool
	FetchDetails       bool
}

type ServerConfig struct {
	Addr     string
	CacheTTL time.Duration
}

type RefreshConfig struct {
	Cron     string
	Interval time.Duration
	Cities   []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Fetch: FetchConfig{
			Timeout:           getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
			MaxAttempts:       getEnvInt("FETCH_MAX_ATTEMPTS", 3),
			MinDelay:          time.Duration(getEnvInt("SCRAPE_DELAY_MIN_MS", 500)) * time.Millisecond,
			MaxDelay:          time.Duration(getEnvInt("SCRAPE_DELAY_MAX_MS", 1500)) * time.Millisecond,
			SkipOnRateLimit:   getEnvBool("SKIP_ON_RATE_LIMIT", true),
			RateLimitCooldown: getEnvDuration("RATE_LIMIT_COOLDOWN", 5*time.Second),
			ProxyURL:          os.Getenv("PROXY_URL"),
		},
		Pipeline: PipelineConfig{
			MaxListingsPerPage: getEnvInt("MAX_LISTINGS_PER_PAGE", 50),
			MaxResults:         getEnvInt("MAX_RESULTS", 500),
			FallbackMinResults: getEnvInt("FALLBACK_MIN_RESULTS", 5),
			SynthesizePrices:   getEnvBool("SYNTHESIZE_PRICES", true),
			FetchDetails:       getEnvBool("FETCH_DETAILS", false),
		},
		Server: ServerConfig{
			Addr:     getEnv("ADDR", ":5000"),
			CacheTTL: getEnvDuration("CACHE_TTL", 15*time.Minute),
		},
		Refresh: RefreshConfig{
			Cron: os.Getenv("REFRESH_CRON"),
		},
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBPath:      os.Getenv("DB_PATH"),
		LogPath:     getEnv("LOG_PATH", "scraper.log"),
	}

	if interval := os.Getenv("REFRESH_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Refresh.Interval = d
		}
	}

	if cities := os.Getenv("REFRESH_CITIES"); cities != "" {
		for _, c := range strings.Split(cities, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cfg.Refresh.Cities = append(cfg.Refresh.Cities, c)
			}
		}
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
