package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"loan-escrow/internal/adapter/events"
	httpadp "loan-escrow/internal/adapter/http"
	mw "loan-escrow/internal/adapter/middleware"
	"loan-escrow/internal/adapter/repository/gormrepo"
	"loan-escrow/internal/config"
	"loan-escrow/internal/domain/event"
	"loan-escrow/internal/infrastructure/cache"
	"loan-escrow/internal/infrastructure/db"
	"loan-escrow/internal/infrastructure/logging"
	"loan-escrow/internal/infrastructure/metrics"
	"loan-escrow/internal/usecase/account"
	"loan-escrow/internal/usecase/ledger"
)

func main() {
	cfg := config.Load()

	log, err := logging.New("loan-escrow", cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), logging.GormLevel(cfg.LogLevel), log)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatal("database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	checks := map[string]httpadp.Check{"db": sqlDB.PingContext}

	var (
		rdb *redis.Client
		pub event.Publisher = event.NoopPublisher{}
	)
	if cfg.RedisAddr != "" {
		rdb, err = cache.OpenRedis(context.Background(), cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Fatal("open redis", zap.Error(err))
		}
		defer rdb.Close()
		pub = events.NewRedisPublisher(rdb, cfg.EventsChannel, log)
		checks["redis"] = cache.Check(rdb)
	} else {
		log.Warn("REDIS_ADDR not set: idempotency and event fan-out disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	tx := gormrepo.NewGormUoW(gdb)
	accounts := gormrepo.NewAccountRepository(gdb)
	ledgerUC := ledger.NewUsecase(
		gormrepo.NewLoanRepository(gdb),
		gormrepo.NewEventRepository(gdb),
		tx,
		ledger.WithPolicy(cfg.Policy()),
		ledger.WithPublisher(pub),
		ledger.WithLogger(log.Named("ledger")),
		ledger.WithMetrics(m),
	)
	accountUC := account.NewUsecase(accounts, tx, log.Named("account"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Recover(), mw.RequestID(), mw.RequestLogger(log.Named("http")))

	routes := httpadp.Routes{
		Health:   httpadp.NewHandler(checks),
		Loans:    httpadp.NewLoanHandler(ledgerUC),
		Accounts: httpadp.NewAccountHandler(accountUC),
		Faucet:   cfg.FaucetEnabled,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
	if rdb != nil {
		routes.Mutating = append(routes.Mutating, mw.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL(), log.Named("idempotency")))
	}
	if cfg.FaucetEnabled {
		log.Warn("faucet enabled: POST /accounts/:address/credit mints value")
	}
	httpadp.Register(e, routes)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.AppPort
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("db_driver", cfg.DBDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("stopped")
}
