package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"wanstay/internal/adapters/booking"
	"wanstay/internal/adapters/cms"
	server "wanstay/internal/adapters/http_server"
	"wanstay/internal/adapters/mailer"
	"wanstay/internal/adapters/observability"
	redisad "wanstay/internal/adapters/redis"
	"wanstay/internal/app"
	"wanstay/internal/domain"
	"wanstay/internal/shared"
	mysqlrepo "wanstay/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	reg := observability.InitRegistry()
	if cfg.MetricsAddr != "" {
		observability.Serve(cfg.MetricsAddr, reg)
	}

	// sources
	var (
		cmsSrc     domain.CMSClient     = cms.New(cfg.CMSBase, cfg.CMSKey, 5)
		bookingSrc domain.BookingClient
	)
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
	bookingSrc = bk
	log.Info().Str("mode", bk.Mode()).Msg("booking client ready")

	if cfg.RedisAddr != "" {
		cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer cache.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := cache.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable; serving without source cache")
		} else {
			cmsSrc = app.NewCachedCMS(cmsSrc, cache, cfg.CacheTTL)
			bookingSrc = app.NewCachedBooking(bookingSrc, cache, cfg.CacheTTL)
			log.Info().Dur("ttl", cfg.CacheTTL).Msg("source cache enabled")
		}
		cancel()
	}

	// optional archive
	var (
		misses    domain.MissLogger
		inquiries domain.InquiryStore
	)
	if cfg.MySQLDSN != "" {
		db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("mysql connection failed")
		}
		defer db.Close()
		repo := mysqlrepo.New(db)
		if err := repo.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("mysql migration failed")
		}
		misses, inquiries = repo, repo
		log.Info().Msg("database connection ok")
	}

	// mail
	var mail domain.Mailer
	if m, err := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom); err != nil {
		log.Warn().Err(err).Msg("contact forms will answer 500 until SMTP_HOST is set")
	} else {
		mail = m
	}

	hotels := app.NewHotelService(cmsSrc, bookingSrc, misses)
	contact := app.NewContactService(mail, inquiries, cfg.ContactTo)

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Hotels: hotels, Contact: contact})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
