// Copyright 2026 The BillFlow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/billflow/billflow/internal/audit"
	"github.com/billflow/billflow/internal/billing"
	"github.com/billflow/billflow/internal/federation"
	"github.com/billflow/billflow/internal/identity"
	"github.com/billflow/billflow/internal/observability/metrics"
	"github.com/billflow/billflow/internal/token"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService   *identity.Service
	federationService *federation.Service
	billingService    *billing.Service
	issuer            *token.Issuer
	validator         *token.Validator
	auditLogger       audit.Logger
	authMetrics       *metrics.AuthMetrics
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	federationService *federation.Service,
	billingService *billing.Service,
	issuer *token.Issuer,
	validator *token.Validator,
	auditLogger audit.Logger,
	authMetrics *metrics.AuthMetrics,
) *Handler {
	return &Handler{
		identityService:   identityService,
		federationService: federationService,
		billingService:    billingService,
		issuer:            issuer,
		validator:         validator,
		auditLogger:       auditLogger,
		authMetrics:       authMetrics,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// Credential and assertion exchange; the only unauthenticated
		// surface.
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/employee-login", h.EmployeeLogin)
		r.Post("/auth/google-login", h.GoogleLogin)

		// Everything below presents a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Route("/users", func(r chi.Router) {
				r.Post("/forgot-password", h.ForgotPassword)
				r.Post("/reset-password", h.ResetPassword)
				r.Post("/verify-email", h.VerifyEmail)
				r.With(RequireOwner).Get("/employees", h.ListEmployees)
				r.Get("/{id}", h.GetProfile)
				r.Put("/{id}", h.UpdateProfile)
				r.Post("/{id}/change-password", h.ChangePassword)
				r.With(RequireOwner).Delete("/{id}", h.DeleteUser)
			})

			r.Route("/employees", func(r chi.Router) {
				r.Use(RequireOwner)
				r.Post("/", h.CreateEmployee)
				r.Get("/", h.ListEmployees)
				r.Get("/{id}", h.GetEmployee)
				r.Put("/{id}", h.UpdateEmployee)
				r.Delete("/{id}", h.DeleteEmployee)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Use(RequireOwner)
				r.Post("/", h.CreateCustomer)
				r.Get("/", h.ListCustomers)
				r.Get("/{id}", h.GetCustomer)
				r.Put("/{id}", h.UpdateCustomer)
				r.Delete("/{id}", h.DeleteCustomer)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "billflow",
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
