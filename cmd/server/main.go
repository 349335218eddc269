package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/cashmais/internal/config"
	"github.com/iliyamo/cashmais/internal/database"
	"github.com/iliyamo/cashmais/internal/handler"
	"github.com/iliyamo/cashmais/internal/middleware"
	"github.com/iliyamo/cashmais/internal/queue"
	"github.com/iliyamo/cashmais/internal/repository"
	"github.com/iliyamo/cashmais/internal/router"
	"github.com/iliyamo/cashmais/internal/service"
	"github.com/iliyamo/cashmais/internal/worker"
)

func main() {
	// A .env file is optional; real deployments inject the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogger(cfg)

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	defer db.Close()

	// nil when Redis is unreachable; rate limiting and caching then pass through.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	identities := repository.NewIdentityRepo(db)
	companies := repository.NewCompanyRepo(db)
	cashiers := repository.NewCashierRepo(db)
	purchases := repository.NewPurchaseRepo(db)
	commissions := repository.NewCommissionRepo(db)
	outbox := repository.NewOutboxRepo(db)
	companySessions := repository.NewCompanySessionRepo(db)
	cashierSessions := repository.NewCashierSessionRepo(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Commission pipeline ----
	ccfg := config.LoadCommissionConfig()
	split := service.NewSplit(ccfg)
	distributor := service.NewCommissionDistributor(identities, commissions, split)

	relay := worker.NewOutboxRelay(outbox, nil, ccfg.Interval, ccfg.BatchSize, ccfg.MaxAttempts)
	switch ccfg.Dispatch {
	case config.DispatchInline:
		relay.Dispatcher = worker.InlineDispatcher{Handle: distributor.Distribute}
	default:
		pub := queue.NewPublisher(ccfg.AMQPURL, ccfg.Queue)
		defer pub.Close()
		relay.Dispatcher = worker.QueueDispatcher{Publisher: pub}
		go queue.StartCommissionConsumer(ctx, ccfg.AMQPURL, ccfg.Queue, distributor.Distribute, relay.Reopen)
	}
	relay.Start(ctx)
	log.Info().Str("dispatch", ccfg.Dispatch).Msg("commission pipeline started")

	recorder := service.NewPurchaseRecorder(identities, companies, purchases, split, cfg.DefaultCashbackPct)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowCredentials: true,
	}))

	edge := router.Edge{
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}

	router.RegisterRoutes(e, db)
	router.RegisterCompany(e, router.CompanyHandlers{
		Auth:     handler.NewCompanyAuthHandler(cfg, companies, companySessions),
		Cashiers: handler.NewCashierAdminHandler(cfg, cashiers),
		Reports:  handler.NewReportHandler(purchases, companies, cfg.DefaultCashbackPct),
		Settings: handler.NewSettingsHandler(companies),
	}, companies, edge)
	router.RegisterCashier(e,
		handler.NewCashierAuthHandler(cfg, cashiers, cashierSessions),
		handler.NewPurchaseHandler(recorder),
		cashiers, edge)
	router.RegisterAffiliate(e, handler.NewAffiliateHandler(cfg, identities, commissions), cfg.JWTSecret, edge)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("cashmais listening")
		if err := e.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

// setupLogger configures the global zerolog logger: pretty console output in
// development, JSON elsewhere.
func setupLogger(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
