// cmd/web/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/gregjones/httpcache"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tiangge-ph/tiangge/bulletin"
	"github.com/tiangge-ph/tiangge/cache"
	"github.com/tiangge-ph/tiangge/internal/config"
	"github.com/tiangge-ph/tiangge/internal/http/routes"
	"github.com/tiangge-ph/tiangge/internal/locations"
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

	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	log.Printf("starting web on :%s", cfg.Port)

	// Cache store
	store, err := cache.Open(cfg.Cache.Backend, cache.Options{
		Dir:       cfg.Cache.Dir,
		RedisAddr: cfg.RedisAddr,
		DSN:       cfg.Cache.DSN,
	})
	if err != nil {
		log.Fatalf("cache error: %v", err)
	}

	// Marketplace API client
	opts := []bulletin.Option{bulletin.WithBaseURL(cfg.API.URL)}
	if cfg.HasAPICredentials() {
		cc := clientcredentials.Config{
			ClientID:     cfg.API.ClientID,
			ClientSecret: cfg.API.ClientSecret,
			TokenURL:     cfg.API.TokenURL,
		}
		// Token transport wraps the caching transport, so authorized GETs
		// still benefit from conditional requests.
		base := &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   30 * time.Second,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		opts = append(opts, bulletin.WithHTTPClient(cc.Client(ctx)))
	}
	api := bulletin.New(opts...)

	resolver := locations.NewResolver(api, locations.NewProvinceCache(store, logger), logger)

	// Sessions
	sess := scs.New()
	sess.Lifetime = 12 * time.Hour
	sess.Cookie.HttpOnly = true
	sess.Cookie.SameSite = http.SameSiteLaxMode
	sess.Cookie.Secure = false

	// Background queue
	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if closeErr := queue.Close(); closeErr != nil {
			log.Printf("Error closing asynq client: %v", closeErr)
		}
	}()

	// Router / server
	s := routes.New(routes.ServerOptions{
		Sess:     sess,
		Resolver: resolver,
		Bulletin: api,
		Jobs:     queue,
		Cfg:      cfg,
		Log:      logger,
	})

	var h http.Handler = s.Router
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.NewHandler(logger)(h)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: sess.LoadAndSave(h)}
	log.Fatal(srv.ListenAndServe())
}
