package main

import (
	"context"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"wanstay/internal/adapters/booking"
	"wanstay/internal/adapters/cms"
	"wanstay/internal/adapters/observability"
	redisad "wanstay/internal/adapters/redis"
	"wanstay/internal/app"
	"wanstay/internal/domain"
	"wanstay/internal/shared"
)

// warmer pre-populates the source cache for the most visited areas so the
// first visitor after a TTL expiry does not pay for the upstream calls.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, "warmer")

	if cfg.RedisAddr == "" {
		log.Fatal().Msg("REDIS_ADDR is empty; nothing to warm")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}

	bk, err := booking.New(booking.Options{
		Base:            cfg.BookingBase,
		AppID:           cfg.BookingAppID,
		Mode:            cfg.BookingMode,
		FallbackOnError: cfg.BookingFallbackOnError,
		RPS:             cfg.BookingRPS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize booking client")
	}

	hotels := app.NewHotelService(
		app.NewCachedCMS(cms.New(cfg.CMSBase, cfg.CMSKey, 5), cache, cfg.CacheTTL),
		app.NewCachedBooking(bk, cache, cfg.CacheTTL),
		nil,
	)
	warm := app.NewWarmService(hotels, cache)

	areas := append([]string{domain.AreaNationwide}, cfg.WarmAreas...)
	log.Info().Strs("areas", areas).Int("workers", cfg.WarmWorkers).Msg("warmer starting")

	sem := semaphore.NewWeighted(int64(max(cfg.WarmWorkers, 1)))
	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	for _, area := range areas {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("warm interrupted")
			break
		}
		wg.Add(1)
		go func(area string) {
			defer wg.Done()
			defer sem.Release(1)
			if _, err := warm.WarmArea(ctx, area); err != nil {
				failed.Add(1)
				log.Warn().Str("area", area).Err(err).Msg("warm failed")
			}
		}(area)
	}
	wg.Wait()

	if n := failed.Load(); n > 0 {
		log.Fatal().Int32("failed", n).Msg("warm completed with failures")
	}
	log.Info().Msg("warm completed")
}
