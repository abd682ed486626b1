package main // Entry point of the SmartStay API server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/config"
	"github.com/iliyamo/smartstay/internal/database"
	"github.com/iliyamo/smartstay/internal/handler"
	"github.com/iliyamo/smartstay/internal/metrics"
	"github.com/iliyamo/smartstay/internal/middleware"
	"github.com/iliyamo/smartstay/internal/repository"
	"github.com/iliyamo/smartstay/internal/router"
	"github.com/iliyamo/smartstay/internal/service"
)

func main() {
	cfg := config.Load()
	log, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, "smartstay-api")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var pub service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		pub = service.NewAMQPPublisher(cfg.AMQPURL)
	}

	rooms := repository.NewRoomRepo(db)
	allocations := repository.NewAllocationRepo(db)
	visitorSvc := service.NewVisitorService(repository.NewVisitorRepo(db), allocations, pub, log, m)
	roomSvc := service.NewRoomService(db, rooms, allocations, service.RoomOptions{
		DefaultCapacity: cfg.RoomDefaultCapacity,
		MaxAttempts:     cfg.RoomTxMaxAttempts,
		Backoff:         cfg.RoomTxBackoff,
	}, pub, log, m)
	financeSvc := service.NewFinanceService(repository.NewPaymentRepo(db), allocations, cfg.RecentPaymentsLimit, pub, log, m)
	facilitySvc := service.NewFacilityService(repository.NewFacilityRepo(db), repository.NewHostelInfoRepo(db), log)
	searchSvc := service.NewSearchService(allocations, rooms, m)
	purge := router.Purger(cacheCfg, rdb, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	router.RegisterRoutes(e, router.Deps{
		JWTSecret:  cfg.JWTSecret,
		RateLimit:  rlCfg,
		Cache:      cacheCfg,
		Redis:      rdb,
		Log:        log,
		Health:     &handler.HealthHandler{DB: db, Redis: rdb},
		Visitors:   handler.NewVisitorHandler(visitorSvc, log),
		Rooms:      handler.NewRoomHandler(roomSvc, purge, log),
		Finance:    handler.NewFinanceHandler(financeSvc, log),
		Facilities: handler.NewFacilityHandler(facilitySvc, purge, log),
		Search:     handler.NewSearchHandler(searchSvc, log),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.Bool("events", cfg.EventsEnabled))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
