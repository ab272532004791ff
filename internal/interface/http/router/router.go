package router

import (
	"time"

	"github.com/gigmile/receivables-service/internal/interface/http/handler"
	"github.com/gigmile/receivables-service/internal/interface/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(handlers *handler.Handlers, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	// Routes
	r.Get("/health", handler.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/products", handlers.Customer.CreateProduct)
		r.Post("/customers", handlers.Customer.CreateCustomer)

		r.Route("/customers/{customer_id}", func(r chi.Router) {
			r.Get("/", handlers.Customer.GetCustomer)
			r.Post("/sales", handlers.Sale.IssueCreditSale)
			r.Get("/statement", handlers.Ledger.GetStatement)
			r.Post("/reconcile", handlers.Ledger.Reconcile)

			r.Route("/payments", func(r chi.Router) {
				r.Get("/", handlers.Payment.GetCustomerPayments)
				r.Post("/", handlers.Payment.ApplyPayment)
				r.Post("/fix-last", handlers.Payment.FixLastPayment)
				r.Post("/{payment_id}/reallocate", handlers.Payment.ReallocatePayment)
			})
		})
	})

	return r
}
