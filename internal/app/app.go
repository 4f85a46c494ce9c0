package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ramadan-assistant/internal/config"
	"github.com/vovakirdan/ramadan-assistant/internal/core"
	"github.com/vovakirdan/ramadan-assistant/internal/prayer"
	transporthttp "github.com/vovakirdan/ramadan-assistant/internal/transport/http"
)

const redisConnectTimeout = 3 * time.Second

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	redis           *prayer.RedisCache
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	client, redisCache := NewPrayerClient(ctx, cfg, logger)

	hub := core.NewHub(core.Options{
		ReplyDelay: cfg.ReplyDelay,
		SessionTTL: cfg.SessionTTL,
		Prayer:     client,
		Logger:     logger,
	})

	server, err := transporthttp.NewServer(hub, cfg, logger)
	if err != nil {
		if redisCache != nil {
			_ = redisCache.Close()
		}
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		redis:           redisCache,
		log:             logger,
	}, nil
}

// NewPrayerClient builds the prayer-times client. Redis backs the cache when configured and
// reachable, otherwise timings are cached in memory. The returned RedisCache is nil when unused.
func NewPrayerClient(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*prayer.Client, *prayer.RedisCache) {
	var (
		cache      prayer.Cache = prayer.NewMemoryCache()
		redisCache *prayer.RedisCache
	)

	if cfg.Redis.Addr != "" {
		connectCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		rc, err := prayer.NewRedisCache(connectCtx, prayer.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cancel()
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, caching prayer times in memory")
		} else {
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("prayer times cached in redis")
			cache = rc
			redisCache = rc
		}
	}

	client := prayer.NewClient(prayer.Options{
		BaseURL:  cfg.PrayerTimes.BaseURL,
		City:     cfg.PrayerTimes.City,
		Country:  cfg.PrayerTimes.Country,
		Method:   cfg.PrayerTimes.Method,
		Timeout:  cfg.PrayerTimes.Timeout,
		CacheTTL: cfg.PrayerTimes.CacheTTL,
	}, cache, logger)

	return client, redisCache
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the redis connection if one was opened.
func (a *App) cleanup() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis")
		} else {
			a.log.Info().Msg("redis closed")
		}
	}
}
