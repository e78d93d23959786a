package main

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bankhandler "cashout/internal/bankaccount/handler"
	bankmodels "cashout/internal/bankaccount/models"
	"cashout/internal/platform/middleware"
	platformredis "cashout/internal/platform/redis"
	verifyhandler "cashout/internal/verify/handler"
	withdrawalhandler "cashout/internal/withdrawal/handler"
)

type routerDeps struct {
	logger            *slog.Logger
	tokens            middleware.TokenValidator
	verifyService     verifyhandler.Service
	bankService       bankhandler.Service
	withdrawalService withdrawalhandler.Service
	db                *sql.DB
	redis             *platformredis.Client
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)

	verifyH := verifyhandler.New(deps.verifyService, deps.logger)
	bankH := bankhandler.New(deps.bankService, deps.logger)
	withdrawalH := withdrawalhandler.New(deps.withdrawalService, deps.logger)

	r.Group(func(user chi.Router) {
		user.Use(middleware.RequireUser(deps.tokens, deps.logger))
		verifyH.Register(user)
		bankH.Register(user)
		withdrawalH.Register(user)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdmin(deps.tokens, deps.logger))
		bankH.RegisterAdmin(admin)
		withdrawalH.RegisterAdmin(admin)
	})

	r.Get("/healthz", healthz(deps.db, deps.redis))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func healthz(db *sql.DB, redis *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redis != nil {
			if err := redis.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func bankmodelsPolicy(name string) bankmodels.MatchPolicy {
	switch name {
	case "exact":
		return bankmodels.ExactMatch
	case "normalized":
		return bankmodels.NormalizedMatch
	default:
		return bankmodels.ContainmentMatch
	}
}
