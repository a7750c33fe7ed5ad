package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/baharkarakas/dragonpay-gateway/internal/api"
	"github.com/baharkarakas/dragonpay-gateway/internal/api/handlers"
	"github.com/baharkarakas/dragonpay-gateway/internal/auth"
	"github.com/baharkarakas/dragonpay-gateway/internal/config"
	"github.com/baharkarakas/dragonpay-gateway/internal/db"
	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/events"
	"github.com/baharkarakas/dragonpay-gateway/internal/gateway"
	"github.com/baharkarakas/dragonpay-gateway/internal/lock"
	"github.com/baharkarakas/dragonpay-gateway/internal/logger"
	"github.com/baharkarakas/dragonpay-gateway/internal/metrics"
	"github.com/baharkarakas/dragonpay-gateway/internal/middleware"
	"github.com/baharkarakas/dragonpay-gateway/internal/repository/postgres"
	"github.com/baharkarakas/dragonpay-gateway/internal/services"
	"github.com/baharkarakas/dragonpay-gateway/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Migrate {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	repos := postgres.NewRepositories(pool)

	var codec dragonpay.ParamCodec
	if cfg.Dragonpay.EncryptParams {
		c, err := dragonpay.NewAEADCodec(cfg.Dragonpay.SecretKey)
		if err != nil {
			log.Error("param codec", "err", err)
			os.Exit(1)
		}
		codec = c
	}
	gw := gateway.New(cfg.Dragonpay, codec, log.With("component", "gateway"))

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis connect", "err", err)
			os.Exit(1)
		}
		locker = lock.NewRedis(rdb, cfg.LockTTL, log.With("component", "lock"))
	}

	var pub events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		k, err := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka", "err", err)
			os.Exit(1)
		}
		defer k.Close()
		pub = k
	}

	wp := worker.NewPool(cfg.ReconcileWorkers)
	defer wp.Stop()

	txnSvc := services.NewTransactionService(cfg.Dragonpay, repos.Transactions, repos.StatusChanges, gw, locker, pub, log.With("component", "transactions"))
	payoutSvc := services.NewPayoutService(cfg.Dragonpay, repos.Payouts, repos.PayoutUsers, repos.StatusChanges, gw, locker, pub, log.With("component", "payouts"))
	reconciler := services.NewReconciler(txnSvc, payoutSvc, wp, log.With("component", "reconciler"))

	validator := dragonpay.NewValidator(
		dragonpay.NewDigester(cfg.Dragonpay.SecretKey, dragonpay.DigestMode(cfg.Dragonpay.DigestMode)),
		codec, cfg.Dragonpay.EncryptParams, log.With("component", "callbacks"))

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Callbacks:    handlers.NewCallbackHandler(validator, txnSvc, log),
		Transactions: handlers.NewTransactionHandler(txnSvc, log),
		Payouts:      handlers.NewPayoutHandler(payoutSvc, log),
		Reconcile:    handlers.NewReconcileHandler(reconciler, log),
		Auth:         handlers.NewAuthHandler(tm, cfg.Env, cfg.AdminUser, cfg.AdminPasswordHash, log),
		AuthMW:       middleware.NewAuthMiddleware(tm, cfg.Env),
		RateRPS:      cfg.RateRPS,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env,
			"save_data", cfg.Dragonpay.SaveData, "encrypt_params", cfg.Dragonpay.EncryptParams)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
