// Command server runs the identity and withdrawal authorization service.
// main wires dependencies and owns the process lifecycle; business logic
// lives in the internal service packages.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"cashout/internal/audit"
	bankservice "cashout/internal/bankaccount/service"
	bankstore "cashout/internal/bankaccount/store"
	"cashout/internal/bankaccount/transfer"
	"cashout/internal/jwttoken"
	"cashout/internal/platform/config"
	"cashout/internal/platform/httpserver"
	"cashout/internal/platform/logger"
	platformredis "cashout/internal/platform/redis"
	"cashout/internal/verify"
	"cashout/internal/verify/crypto"
	"cashout/internal/verify/limiter"
	verifymetrics "cashout/internal/verify/metrics"
	"cashout/internal/verify/provider"
	verifystore "cashout/internal/verify/store"
	"cashout/internal/withdrawal/adapters"
	withdrawalmetrics "cashout/internal/withdrawal/metrics"
	withdrawalservice "cashout/internal/withdrawal/service"
	withdrawalstore "cashout/internal/withdrawal/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	// Persistence. Without a DSN everything runs on in-memory stores, which
	// is enough for local development against a stubbed provider.
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.Ping(); err != nil {
			log.Error("failed to ping postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var (
		matchStore    verify.MatchStore
		matchReader   adapters.MatchReader
		bankAccounts  bankservice.Store
		accountReader adapters.AccountReader
		withdrawals   withdrawalservice.Store
		auditStore    audit.Store
	)
	if db != nil {
		pgMatches := verifystore.NewPostgres(db)
		matchStore, matchReader = pgMatches, pgMatches
		pgAccounts := bankstore.NewPostgres(db)
		bankAccounts, accountReader = pgAccounts, pgAccounts
		withdrawals = withdrawalstore.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
	} else {
		memMatches := verifystore.NewInMemoryStore()
		matchStore, matchReader = memMatches, memMatches
		memAccounts := bankstore.NewInMemoryStore()
		bankAccounts, accountReader = memAccounts, memAccounts
		withdrawals = withdrawalstore.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	auditPub := audit.NewPublisher(auditStore, log, audit.WithAsyncBuffer(256))
	defer auditPub.Close()

	providerClient := provider.New(cfg.TrustProvider, log)

	var attempts *limiter.Limiter
	if redisClient != nil {
		attempts = limiter.New(redisClient.Client, log, 5, 10*time.Minute)
	} else {
		attempts = limiter.New(nil, log, 0, 0)
	}

	verifyService, err := verify.New(providerClient, matchStore, attempts, auditPub, log,
		verifymetrics.New(), crypto.Strength(cfg.TrustProvider.Strength))
	if err != nil {
		log.Error("failed to build verify service", "error", err)
		os.Exit(1)
	}

	if redisClient == nil {
		log.Error("redis is required: points balances are read from it")
		os.Exit(1)
	}
	balances := adapters.NewRedisBalanceSource(redisClient.Client)

	withdrawalService, err := withdrawalservice.New(
		withdrawals,
		adapters.NewIdentityGate(matchReader),
		balances,
		adapters.NewAccountSource(accountReader),
		auditPub,
		log,
		withdrawalmetrics.New(),
		cfg.Withdrawal.MinPoints,
	)
	if err != nil {
		log.Error("failed to build withdrawal service", "error", err)
		os.Exit(1)
	}

	var transferClient bankservice.Transfer
	if tc := transfer.New(cfg.MicroDeposit, log); tc != nil {
		transferClient = tc
	} else {
		log.Warn("no transfer gateway configured, micro-deposit verification disabled")
	}

	bankService, err := bankservice.New(bankAccounts, providerClient, transferClient,
		withdrawalService, auditPub, log, cfg.MicroDeposit.DepositorName,
		bankmodelsPolicy(cfg.MicroDeposit.MatchPolicy))
	if err != nil {
		log.Error("failed to build bank account service", "error", err)
		os.Exit(1)
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "cashout")

	router := newRouter(routerDeps{
		logger:            log,
		tokens:            tokens,
		verifyService:     verifyService,
		bankService:       bankService,
		withdrawalService: withdrawalService,
		db:                db,
		redis:             redisClient,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
