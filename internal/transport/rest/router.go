package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/cvpratico/cv-builder/internal/cv"
	"github.com/cvpratico/cv-builder/internal/fulfillment"
	"github.com/cvpratico/cv-builder/internal/payment"
	"github.com/cvpratico/cv-builder/internal/transport/middleware"
	"github.com/cvpratico/cv-builder/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, allowedOrigins string, cvHandler *cv.Handler, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, documentsHandler *fulfillment.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if webhookHandler != nil {
			r.Post("/payments/webhook", webhookHandler.HandleNotification)
		}

		if paymentHandler != nil {
			r.Post("/payments/preference", paymentHandler.CreatePreference)
		}

		if cvHandler != nil {
			r.Route("/cvs", func(cr chi.Router) {
				cr.Post("/", cvHandler.CreateCv)   // POST /cvs
				cr.Get("/{id}", cvHandler.GetCv)   // GET /cvs/:id

				if documentsHandler != nil {
					cr.Post("/{id}/documents", documentsHandler.GenerateDocuments) // POST /cvs/:id/documents
					cr.Get("/{id}/pdf", documentsHandler.DownloadPdf)              // GET /cvs/:id/pdf
				}
			})
		}
	})
}
