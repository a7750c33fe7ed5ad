package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/dragonpay-gateway/internal/api/handlers"
	"github.com/baharkarakas/dragonpay-gateway/internal/auth"
	"github.com/baharkarakas/dragonpay-gateway/internal/metrics"
	"github.com/baharkarakas/dragonpay-gateway/internal/middleware"
)

type RouterDeps struct {
	Callbacks    *handlers.CallbackHandler
	Transactions *handlers.TransactionHandler
	Payouts      *handlers.PayoutHandler
	Reconcile    *handlers.ReconcileHandler
	Auth         *handlers.AuthHandler
	AuthMW       *middleware.AuthMiddleware
	RateRPS      int
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	// gateway-facing, authenticated by digest
	r.Route("/dragonpay", func(r chi.Router) {
		r.Get("/postback", d.Callbacks.Postback)
		r.Post("/postback", d.Callbacks.Postback)
		r.Get("/return", d.Callbacks.Return)
	})

	// gateway callbacks are never throttled by admin traffic
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(d.RateRPS))
		r.Post("/auth/login", d.Auth.Login)
		r.Post("/auth/refresh", d.Auth.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(d.AuthMW.Auth)

			r.Get("/transactions", d.Transactions.List)
			r.Get("/transactions/{id}", d.Transactions.Get)
			r.Get("/transactions/{id}/history", d.Transactions.History)
			r.Post("/transactions/{id}/fetch-status", d.Transactions.FetchStatus)

			r.Get("/payouts", d.Payouts.List)
			r.Get("/payouts/{id}", d.Payouts.Get)
			r.Get("/payouts/{id}/history", d.Payouts.History)
			r.Post("/payouts/{id}/fetch-status", d.Payouts.FetchStatus)
			r.Get("/payout-users/{id}", d.Payouts.GetUser)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleAdmin))
				r.Post("/transactions", d.Transactions.Begin)
				r.Post("/payouts", d.Payouts.Create)
				r.Post("/payout-users", d.Payouts.RegisterUser)
				r.Post("/reconcile", d.Reconcile.Run)
			})
		})
	})

	return r
}
