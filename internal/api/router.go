/**
 * @description
 * This file sets up the HTTP router for the biopay-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * middleware for logging, CORS, and authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for chi.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and returns the router for the biopay-service.
func NewRouter(h *Handlers, jwksURL string) *chi.Mux {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
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
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwksURL))

		// Biometric enrollment and verification
		r.Post("/biometrics/enroll", h.EnrollHandler)
		r.Post("/biometrics/rotate", h.RotateBiometricHandler)
		r.Post("/biometrics/verify", h.VerifyBiometricHandler)
		r.Delete("/biometrics/{accountID}", h.DeactivateBiometricHandler)
		r.Get("/biometrics/{accountID}", h.GetBiometricProfileHandler)
		r.Get("/biometrics/{accountID}/registered", h.BiometricRegisteredHandler)

		// Payment request lifecycle
		r.Post("/payments", h.CreatePaymentRequestHandler)
		r.Get("/payments/{paymentID}", h.GetPaymentRequestHandler)
		r.Post("/payments/{paymentID}/authenticate", h.AuthenticatePaymentHandler)
		r.Post("/payments/{paymentID}/authenticate/backup", h.BackupAuthenticatePaymentHandler)
		r.Post("/payments/{paymentID}/process", h.ProcessPaymentHandler)
		r.Post("/payments/{paymentID}/cancel", h.CancelPaymentRequestHandler)

		// User profiles and spending limits
		r.Put("/users/me/spending-limit", h.UpdateSpendingLimitHandler)
		r.Get("/users/{accountID}", h.GetUserProfileHandler)
		r.Get("/users/{accountID}/stats", h.GetUserStatsHandler)
		r.Get("/users/{accountID}/verified", h.UserVerifiedHandler)

		// Merchants
		r.Post("/merchants", h.RegisterMerchantHandler)
		r.Get("/merchants/{accountID}", h.GetMerchantHandler)

		// Owner-gated administration; the engine enforces the owner check.
		r.Put("/admin/config/auth-timeout", h.UpdateAuthTimeoutHandler)
		r.Put("/admin/config/max-retries", h.UpdateMaxRetriesHandler)
		r.Post("/admin/accounts/{accountID}/unlock", h.UnlockAccountHandler)
		r.Get("/admin/stats", h.SystemStatsHandler)
	})

	return r
}
