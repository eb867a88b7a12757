/**
 * @description
 * This file sets up the HTTP router for the access service using the
 * go-chi/chi router. It defines the API routes, applies middleware for
 * logging, CORS, and authentication, and maps the routes to their
 * corresponding handler functions.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the access-service routes.
func NewRouter(h *Handlers, jwksURL string) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Access service is healthy"))
	})

	// Protected routes that require authentication
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwksURL))

		// Scan processing and ledger
		r.Post("/scans", h.ProcessScanHandler)
		r.Get("/scans", h.ListScansHandler)
		r.Get("/scans/stats", h.ScanStatsHandler)
		r.Get("/scans/{scanID}", h.GetScanHandler)
		r.Put("/scans/{scanID}/override", h.OverrideScanHandler)

		// Membership
		r.Post("/members", h.CreateMemberHandler)
		r.Get("/members/{memberID}", h.GetMemberHandler)
		r.Put("/members/{memberID}/suspend", h.SuspendMemberHandler)
		r.Put("/members/{memberID}/reinstate", h.ReinstateMemberHandler)
		r.Post("/members/{memberID}/credential/rotate", h.RotateCredentialHandler)
		r.Put("/members/{memberID}/current-subscription", h.SetCurrentSubscriptionHandler)

		// Subscriptions
		r.Post("/subscriptions", h.CreateSubscriptionHandler)
		r.Get("/subscriptions/{subscriptionID}", h.GetSubscriptionHandler)
		r.Put("/subscriptions/{subscriptionID}/pay", h.PaySubscriptionHandler)

		// Health certificates
		r.Post("/health-certificates", h.CreateCertificateHandler)
		r.Put("/health-certificates/{certificateID}/renew", h.RenewCertificateHandler)

		// Plan catalog
		r.Get("/plans", h.ListPlansHandler)
		r.Post("/plans", h.CreatePlanHandler)
		r.Put("/plans/{planID}", h.UpdatePlanHandler)
		r.Delete("/plans/{planID}", h.DeletePlanHandler)

		// Facility settings
		r.Get("/settings", h.GetSettingsHandler)
	})

	return r
}
