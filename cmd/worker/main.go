package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"

	"github.com/tiangge-ph/tiangge/bulletin"
	"github.com/tiangge-ph/tiangge/cache"
	"github.com/tiangge-ph/tiangge/internal/config"
	"github.com/tiangge-ph/tiangge/internal/jobs"
	"github.com/tiangge-ph/tiangge/internal/locations"
	"github.com/tiangge-ph/tiangge/internal/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "worker").Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	store, err := cache.Open(cfg.Cache.Backend, cache.Options{
		Dir:       cfg.Cache.Dir,
		RedisAddr: cfg.RedisAddr,
		DSN:       cfg.Cache.DSN,
	})
	if err != nil {
		log.Fatalf("cache error: %v", err)
	}
	pcache := locations.NewProvinceCache(store, logger)

	opts := []bulletin.Option{bulletin.WithBaseURL(cfg.API.URL)}
	if cfg.HasAPICredentials() {
		cc := clientcredentials.Config{
			ClientID:     cfg.API.ClientID,
			ClientSecret: cfg.API.ClientSecret,
			TokenURL:     cfg.API.TokenURL,
		}
		opts = append(opts, bulletin.WithHTTPClient(cc.Client(context.Background())))
	}
	api := bulletin.New(opts...)

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency:    8,
		StrictPriority: false,
		Queues: map[string]int{
			"critical": 10, // admin-triggered refreshes
			"default":  5,  // scheduled maintenance
		},
	})
	mux := asynq.NewServeMux()

	mux.HandleFunc(jobs.TaskRefreshProvinces, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.RefreshProvincesPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("bad payload: %v: %w", err, asynq.SkipRetry)
		}
		return refreshProvinces(ctx, api, pcache, logger, p)
	})

	// The nightly run lands well inside the cache TTL, so a quiet day never
	// serves an expired list.
	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, &asynq.SchedulerOpts{
		Location: time.UTC,
	})
	payload, err := json.Marshal(jobs.RefreshProvincesPayload{})
	if err != nil {
		log.Fatalf("marshal refresh payload: %v", err)
	}
	if _, err := scheduler.Register("0 19 * * *", asynq.NewTask(jobs.TaskRefreshProvinces, payload), asynq.Queue("default")); err != nil {
		log.Fatalf("register refresh schedule: %v", err)
	}

	var g errgroup.Group
	g.Go(func() error { return srv.Run(mux) })
	g.Go(func() error { return scheduler.Run() })

	log.Println("Worker running...")
	log.Fatal(g.Wait())
}

// refreshProvinces refetches the province reference list and rewrites the
// cache. Without Force a still-valid cache is left alone.
func refreshProvinces(ctx context.Context, api locations.LocationAPI, pcache *locations.ProvinceCache, logger zerolog.Logger, p jobs.RefreshProvincesPayload) error {
	start := time.Now()

	if !p.Force && pcache.Valid(ctx) {
		metrics.RefreshRuns.WithLabelValues("skipped").Inc()
		logger.Info().Msg("province cache still fresh, skipping refresh")
		return nil
	}

	provinces, err := api.Provinces(ctx)
	if err != nil {
		metrics.RefreshRuns.WithLabelValues("failed").Inc()
		if isRetryableError(err) {
			logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("province refresh failed, will retry")
			return err
		}
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("province refresh failed permanently")
		return fmt.Errorf("fetch provinces: %v: %w", err, asynq.SkipRetry)
	}

	if err := pcache.SetProvinces(ctx, provinces); err != nil {
		metrics.RefreshRuns.WithLabelValues("failed").Inc()
		return fmt.Errorf("store provinces: %w", err)
	}

	metrics.RefreshRuns.WithLabelValues("ok").Inc()
	logger.Info().
		Int("provinces", len(provinces)).
		Dur("duration", time.Since(start)).
		Msg("province cache refreshed")
	return nil
}

// isRetryableError determines if an error should trigger a job retry
func isRetryableError(err error) bool {
	errStr := strings.ToLower(err.Error())

	// Network/connectivity issues - should retry
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "dns") {
		return true
	}

	// Rate limiting - should retry later
	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") {
		return true
	}

	// Temporary server errors - should retry
	if strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") {
		return true
	}

	// Everything else (auth failures, bad data, etc.) - don't retry
	return false
}
