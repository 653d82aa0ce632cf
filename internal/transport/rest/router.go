package rest

import (
	"database/sql"
	"log/slog"
	"strings"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"

	"github.com/licensepro/backend/internal/payment"
	"github.com/licensepro/backend/internal/transport/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, allowedOrigins string, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(allowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Mount API under /api/v1
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// The gateway calls the notify URL server-to-server; the payload
		// signature is its authentication.
		if webhookHandler != nil {
			r.Post("/payment/callback", webhookHandler.HandleCallback)
		}

		if paymentHandler != nil {
			r.Route("/payment", func(pr chi.Router) {
				pr.Post("/initialize", paymentHandler.InitializePayment)
				pr.Get("/status/{transactionId}", paymentHandler.GetPaymentStatus)
				pr.Get("/history/{driverId}", paymentHandler.GetPaymentHistory)
				pr.Get("/receipt/{transactionId}", paymentHandler.DownloadReceipt)
				pr.Get("/calculate-fee", paymentHandler.CalculateFee)
				pr.Get("/check-payment/{applicationId}", paymentHandler.CheckApplicationPaid)
			})
		}
	})
}

func splitOrigins(allowedOrigins string) []string {
	var origins []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}
