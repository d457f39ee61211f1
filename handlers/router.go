package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ferreirogomes/vaultrwa/logging"
	"github.com/ferreirogomes/vaultrwa/metrics"
	"github.com/ferreirogomes/vaultrwa/services"
	"github.com/ferreirogomes/vaultrwa/vault"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Deps reúne o que o roteador precisa. Logger, HTTPMetrics, Registry e Ping
// são opcionais.
type Deps struct {
	Vault       *vault.Store
	Investments *services.InvestmentService
	Logger      *zap.Logger
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
	Ping        func(context.Context) error // Checagem do banco em /healthz
}

// NewRouter monta as rotas da API.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	assetHandler := NewAssetHandler(d.Vault, d.Investments)
	portfolioHandler := NewPortfolioHandler(d.Vault, d.Investments)
	transactionHandler := NewTransactionHandler(d.Vault)
	userHandler := NewUserHandler(d.Vault)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if d.HTTPMetrics != nil {
		r.Use(d.HTTPMetrics.Middleware)
	}

	r.Route("/assets", func(r chi.Router) {
		r.Get("/", assetHandler.ListAssets)
		r.Get("/{id}", assetHandler.GetAssetByID)
		r.Get("/{id}/value", assetHandler.GetAssetValue)
		r.Get("/{id}/quantity", assetHandler.GetAssetQuantity)
		r.Get("/{id}/transactions", assetHandler.GetAssetTransactions)
		r.Post("/{id}/quote", assetHandler.QuoteInvestment)

		r.Group(func(r chi.Router) {
			r.Use(RequireCaller)
			r.Post("/", assetHandler.CreateAsset)
			r.Put("/{id}/apy", assetHandler.SetAssetAPY)
			r.Put("/{id}/value", assetHandler.UpdateAssetValue)
			r.Put("/{id}/description", assetHandler.UpdateAssetDescription)
			r.Post("/{id}/verify", assetHandler.VerifyAsset)
			r.Post("/{id}/deactivate", assetHandler.DeactivateAsset)
		})
	})

	r.Route("/portfolios", func(r chi.Router) {
		r.Get("/", portfolioHandler.ListPortfolios)
		r.Get("/{id}", portfolioHandler.GetPortfolioByID)
		r.Get("/{id}/value", portfolioHandler.GetPortfolioValue)

		r.Group(func(r chi.Router) {
			r.Use(RequireCaller)
			r.Post("/", portfolioHandler.CreatePortfolio)
			r.Post("/{id}/assets", portfolioHandler.AddAsset)
			r.Post("/{id}/invest", portfolioHandler.Invest)
			r.Put("/{id}/description", portfolioHandler.UpdatePortfolioDescription)
			r.Post("/{id}/verify", portfolioHandler.VerifyPortfolio)
			r.Post("/{id}/deactivate", portfolioHandler.DeactivatePortfolio)
		})
	})

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/{id}", transactionHandler.GetTransactionByID)
		r.With(RequireCaller).Post("/", transactionHandler.ExecuteTransaction)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/{address}/assets", userHandler.GetUserAssets)
		r.Get("/{address}/portfolios", userHandler.GetUserPortfolios)
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, StatsResponse{
			Assets:       d.Vault.GetAssetCount(),
			Portfolios:   d.Vault.GetPortfolioCount(),
			Transactions: d.Vault.GetTransactionCount(),
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ping(ctx); err != nil {
				logger.Warn("checagem de saúde falhou", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if d.Registry != nil {
		r.Handle("/metrics", metrics.Handler(d.Registry))
	}

	return r
}
