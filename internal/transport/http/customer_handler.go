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
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/billflow/billflow/internal/billing"
	"github.com/billflow/billflow/internal/observability/logger"
)

type customerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Type    string `json:"type"`
}

type customerResponse struct {
	ID      int64  `json:"id"`
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Type    string `json:"type"`
}

func toCustomerResponse(c *billing.Customer) customerResponse {
	return customerResponse{
		ID:      c.ID,
		UserID:  c.UserID,
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
		Type:    c.Type,
	}
}

// customerID parses the {id} path parameter. Non-numeric ids read the
// same as absent rows.
func customerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "customer not found")
		return 0, false
	}
	return id, true
}

// CreateCustomer creates a customer owned by the calling user
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	customer, err := h.billingService.CreateCustomer(r.Context(), claims.PrincipalID, billing.NewCustomer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Type:    req.Type,
	})
	if err != nil {
		if errors.Is(err, billing.ErrOwnerNotFound) {
			// Valid token for an account deleted in the meantime.
			respondError(w, http.StatusNotFound, "owner not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to create customer", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create customer")
		return
	}

	respondJSON(w, http.StatusCreated, toCustomerResponse(customer))
}

// ListCustomers lists the calling user's customers
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	customers, err := h.billingService.ListCustomers(r.Context(), claims.PrincipalID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list customers", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}

	out := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, toCustomerResponse(c))
	}

	respondJSON(w, http.StatusOK, out)
}

// GetCustomer retrieves one of the calling user's customers. Rows
// owned by anyone else read as absent.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, ok := customerID(w, r)
	if !ok {
		return
	}

	customer, err := h.billingService.GetCustomer(r.Context(), claims.PrincipalID, id)
	if err != nil {
		if errors.Is(err, billing.ErrCustomerNotFound) {
			respondError(w, http.StatusNotFound, "customer not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get customer", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get customer")
		return
	}

	respondJSON(w, http.StatusOK, toCustomerResponse(customer))
}

// UpdateCustomer updates one of the calling user's customers
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, ok := customerID(w, r)
	if !ok {
		return
	}

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	customer, err := h.billingService.UpdateCustomer(r.Context(), claims.PrincipalID, id, billing.NewCustomer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Type:    req.Type,
	})
	if err != nil {
		if errors.Is(err, billing.ErrCustomerNotFound) {
			respondError(w, http.StatusNotFound, "customer not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to update customer", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update customer")
		return
	}

	respondJSON(w, http.StatusOK, toCustomerResponse(customer))
}

// DeleteCustomer removes one of the calling user's customers
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, ok := customerID(w, r)
	if !ok {
		return
	}

	if err := h.billingService.DeleteCustomer(r.Context(), claims.PrincipalID, id); err != nil {
		if errors.Is(err, billing.ErrCustomerNotFound) {
			respondError(w, http.StatusNotFound, "customer not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete customer", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete customer")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "customer deleted"})
}
