// Command warm runs one cache-warming pass over a commodity list and
// exits. It is the CLI counterpart of the POST /api/update-cache/all
// endpoint, for cron-less environments and operator use.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mandiprice/internal/agmarknet"
	"mandiprice/internal/config"
	"mandiprice/internal/httpx"
	"mandiprice/internal/pricecache"
	"mandiprice/internal/warming"
	"mandiprice/pkg/logger"
)

func main() {
	var commoditiesCSV string
	var state string
	var configPath string

	flag.StringVar(&commoditiesCSV, "commodities", os.Getenv("WARM_COMMODITIES"), "comma-separated commodity list (default from config)")
	flag.StringVar(&state, "state", os.Getenv("WARM_STATE"), "state to warm (default from config)")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	commodities := cfg.Warming.Commodities
	if strings.TrimSpace(commoditiesCSV) != "" {
		commodities = config.SplitCSV(commoditiesCSV)
	}
	if state == "" {
		state = cfg.Warming.State
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open durable cache")
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	client := agmarknet.New(agmarknet.Config{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  cfg.Upstream.APIKey,
		Timeout: time.Duration(cfg.Upstream.TimeoutSec) * time.Second,
	}, httpClient, log)

	warmer := &warming.Warmer{
		Fetcher: &agmarknet.Retrier{
			F:        client,
			Attempts: cfg.Warming.RetryAttempts,
			Backoff:  time.Duration(cfg.Warming.RetryBackoffMs) * time.Millisecond,
			Log:      log,
		},
		Store: store,
		Delay: time.Duration(cfg.Warming.DelayMs) * time.Millisecond,
		Limit: cfg.Warming.RecordLimit,
		Log:   log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report := warmer.WarmAll(ctx, commodities, state)
	for _, res := range report.Results {
		status := "ok"
		if !res.Success {
			status = "failed"
		}
		fmt.Printf("%-12s %-6s records=%d\n", res.Commodity, status, res.Records)
	}
	fmt.Printf("%d of %d commodities cached\n", report.Succeeded(), len(report.Results))

	if report.Succeeded() == 0 && len(report.Results) > 0 {
		os.Exit(1)
	}
}

func openStore(cfg config.Config) (pricecache.Store, error) {
	if cfg.Store.Backend == "redis" {
		return pricecache.NewRedisStore(pricecache.RedisConfig{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
	}
	return pricecache.NewSQLiteStore(cfg.Store.Path)
}
