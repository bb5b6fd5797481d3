package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	CacheTTL       time.Duration
	ListingBaseURL string
	PlatformBase   string
	PlatformKey    string
	PlatformRPS    int
	SyncWorkers    int
	POICities      []string
	RequestTimeout time.Duration
}

// Load reads the environment, after merging a local .env file when present.
// Variables already set in the environment win over the file.
func Load() Config {
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer; using default")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/resorts?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		ListingBaseURL: env("LISTING_BASE_URL", "https://www.example-resorts.com/resorts/"),
		PlatformBase:   env("PLATFORM_BASE_URL", "https://content.example-resorts.com/v1"),
		PlatformKey:    env("PLATFORM_API_KEY", ""),
		PlatformRPS:    atoi("PLATFORM_RPS", 5),
		SyncWorkers:    atoi("SYNC_WORKERS", 4),
		POICities:      splitCSV(env("POI_CITIES", "")),
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
	}
	if !strings.HasSuffix(c.ListingBaseURL, "/") {
		c.ListingBaseURL += "/"
	}
	if c.SyncWorkers <= 0 {
		c.SyncWorkers = 1
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
