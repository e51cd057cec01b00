package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Upstream struct {
	// BaseURL is the AGMARKNET resource endpoint (variety-wise daily market prices).
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	// TimeoutSec bounds a single upstream call. It must stay below any
	// platform deadline of the hosting environment (~30s), so the default
	// is 23 and the fallback path runs instead of a gateway timeout.
	TimeoutSec int `json:"timeout_sec"`
}

type Cache struct {
	TTLSeconds  int `json:"ttl_sec"`
	RecordLimit int `json:"record_limit"`
	TrendLimit  int `json:"trend_limit"`
}

type Store struct {
	Backend       string `json:"backend"` // sqlite | redis
	Path          string `json:"path"`    // sqlite database file
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
}

type Warming struct {
	Commodities    []string `json:"commodities"`
	State          string   `json:"state"`
	DelayMs        int      `json:"delay_ms"`
	RetryAttempts  int      `json:"retry_attempts"`
	RetryBackoffMs int      `json:"retry_backoff_ms"`
	RecordLimit    int      `json:"record_limit"`
	// Schedule is an optional cron spec (with seconds field); empty
	// disables scheduled warming and leaves only the admin trigger.
	Schedule string `json:"schedule"`
}

type Config struct {
	Server    Server  `json:"server"`
	Upstream  Upstream `json:"upstream"`
	Cache     Cache   `json:"cache"`
	Store     Store   `json:"store"`
	Warming   Warming `json:"warming"`
	LogLevel  string  `json:"log_level"`
	LogPretty bool    `json:"log_pretty"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 30},
		Upstream: Upstream{
			BaseURL:    "https://api.data.gov.in/resource/35985678-0d79-46b4-9ed6-6f13308a1d24",
			TimeoutSec: 23,
		},
		Cache: Cache{TTLSeconds: 300, RecordLimit: 10, TrendLimit: 100},
		Store: Store{Backend: "sqlite", Path: "data/marketcache.db", RedisAddr: "localhost:6379"},
		Warming: Warming{
			Commodities:    []string{"Rice", "Maize", "Wheat", "Cotton", "Sugarcane"},
			State:          "Karnataka",
			DelayMs:        2000,
			RetryAttempts:  2,
			RetryBackoffMs: 4000,
			RecordLimit:    5,
		},
		LogLevel: "info",
	}
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. A .env file and environment variables
// override file values; secrets only ever come from the environment.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setInt(&cfg.Server.RequestTimeoutSec, "REQUEST_TIMEOUT_SEC")

	setString(&cfg.Upstream.BaseURL, "AGMARKNET_BASE_URL")
	setString(&cfg.Upstream.APIKey, "AGMARKNET_API_KEY")
	setInt(&cfg.Upstream.TimeoutSec, "UPSTREAM_TIMEOUT_SEC")

	setInt(&cfg.Cache.TTLSeconds, "CACHE_TTL_SEC")
	setInt(&cfg.Cache.RecordLimit, "CACHE_RECORD_LIMIT")
	setInt(&cfg.Cache.TrendLimit, "CACHE_TREND_LIMIT")

	setString(&cfg.Store.Backend, "STORE_BACKEND")
	setString(&cfg.Store.Path, "STORE_PATH")
	setString(&cfg.Store.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Store.RedisPassword, "REDIS_PASSWORD")
	setInt(&cfg.Store.RedisDB, "REDIS_DB")

	if v := os.Getenv("WARM_COMMODITIES"); v != "" {
		cfg.Warming.Commodities = SplitCSV(v)
	}
	setString(&cfg.Warming.State, "WARM_STATE")
	setInt(&cfg.Warming.DelayMs, "WARM_DELAY_MS")
	setInt(&cfg.Warming.RetryAttempts, "WARM_RETRY_ATTEMPTS")
	setInt(&cfg.Warming.RetryBackoffMs, "WARM_RETRY_BACKOFF_MS")
	setInt(&cfg.Warming.RecordLimit, "WARM_RECORD_LIMIT")
	setString(&cfg.Warming.Schedule, "WARM_SCHEDULE")

	setString(&cfg.LogLevel, "LOG_LEVEL")
	setBool(&cfg.LogPretty, "LOG_PRETTY")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x >= 0 {
			*dst = x
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			*dst = true
		case "0", "false", "no", "n":
			*dst = false
		}
	}
}

func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
