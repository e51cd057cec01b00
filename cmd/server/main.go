package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mandiprice/internal/agmarknet"
	"mandiprice/internal/config"
	"mandiprice/internal/facade"
	"mandiprice/internal/httpx"
	"mandiprice/internal/pricecache"
	"mandiprice/internal/scheduler"
	"mandiprice/internal/server"
	"mandiprice/internal/warming"
	"mandiprice/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		// Logger is not up yet; this is a genuine startup failure.
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	if cfg.Upstream.APIKey == "" {
		log.Warn().Msg("AGMARKNET_API_KEY not set; live fetches will fail and fallbacks will serve")
	}

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

	svc := &facade.Service{
		Fetcher: client,
		Memory:  pricecache.NewMemory(),
		Store:   store,
		TTL:     time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		Limit:   cfg.Cache.RecordLimit,
		Log:     log.With().Str("component", "facade").Logger(),
	}

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
		Log:   log.With().Str("component", "warmer").Logger(),
	}

	var sched *scheduler.Scheduler
	if cfg.Warming.Schedule != "" {
		sched = scheduler.New(log)
		err := sched.AddJob(cfg.Warming.Schedule, "warm-market-cache", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			report := warmer.WarmAll(ctx, cfg.Warming.Commodities, cfg.Warming.State)
			log.Info().Int("succeeded", report.Succeeded()).Int("failed", report.Failed()).Msg("scheduled warm finished")
			return nil
		})
		if err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Warming.Schedule).Msg("register warm schedule")
		}
		sched.Start()
	}

	srv := server.New(server.Config{
		Log:         log,
		Facade:      svc,
		Warmer:      warmer,
		Commodities: cfg.Warming.Commodities,
		State:       cfg.Warming.State,
		Port:        cfg.Server.Port,
		TrendLimit:  cfg.Cache.TrendLimit,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info().Msg("shutting down")

	if sched != nil {
		sched.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
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
