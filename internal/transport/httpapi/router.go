package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/servostack/paydesk/internal/transport/httpapi/handler"
	"github.com/servostack/paydesk/internal/transport/httpapi/middleware"
	"github.com/servostack/paydesk/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger         *logger.Logger
	AllowedOrigins []string
	AuthHandler    *handler.AuthHandler
	WalletHandler  *handler.WalletHandler
	RenewalHandler *handler.RenewalHandler
	PlanHandler    *handler.PlanHandler
	HealthHandler  *handler.HealthHandler
	JWTMiddleware  func(http.Handler) http.Handler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit()) // Rate limiting: 100 req/s with burst of 20

	// Health check endpoints (no authentication required)
	r.Get("/health", handler.GetHealth)
	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
		r.Get("/health/detailed", cfg.HealthHandler.GetHealthDetailed)
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public - no authentication required)
		if cfg.AuthHandler != nil {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/refresh", cfg.AuthHandler.Refresh)
		}

		// Protected routes (require JWT authentication)
		if cfg.JWTMiddleware != nil {
			r.Group(func(r chi.Router) {
				r.Use(cfg.JWTMiddleware)

				if cfg.WalletHandler != nil {
					r.Get("/wallet/balance", cfg.WalletHandler.GetBalance)
				}

				if cfg.PlanHandler != nil {
					r.Get("/plans", cfg.PlanHandler.GetPlans)
				}

				if cfg.RenewalHandler != nil {
					r.Post("/renewals/initiate", cfg.RenewalHandler.Initiate)
					r.Post("/renewals/confirm", cfg.RenewalHandler.Confirm)
				}

				// Admin routes
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly())

					if cfg.WalletHandler != nil {
						r.Get("/wallet/pending-transactions", cfg.WalletHandler.GetPendingTransactions)
						r.Get("/wallet/pending-summary", cfg.WalletHandler.GetPendingSummary)
						r.Post("/wallet/approve-transaction", cfg.WalletHandler.ApproveTransaction)
						r.Post("/wallet/reject-transaction", cfg.WalletHandler.RejectTransaction)
						r.Get("/wallet/transactions", cfg.WalletHandler.GetTransactions)
						r.Delete("/wallet/transactions/{id}", cfg.WalletHandler.DeleteTransaction)
						r.Post("/wallet/transactions/bulk-delete", cfg.WalletHandler.BulkDeleteTransactions)
					}

					if cfg.RenewalHandler != nil {
						r.Get("/renewals/pending", cfg.RenewalHandler.GetPendingRenewals)
						r.Post("/renewals/approve", cfg.RenewalHandler.Approve)
						r.Post("/renewals/reject", cfg.RenewalHandler.Reject)
					}
				})
			})
		}
	})

	return r
}
