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

	"github.com/go-chi/chi/v5"

	"github.com/billflow/billflow/internal/identity"
	"github.com/billflow/billflow/internal/observability/logger"
)

type createEmployeeRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	Permissions string `json:"permissions"`
}

type updateEmployeeRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	Permissions string `json:"permissions"`
}

// CreateEmployee registers an employee under the calling owner
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "full_name, email and password are required")
		return
	}

	employee, err := h.identityService.RegisterEmployee(r.Context(), claims.PrincipalID, identity.NewEmployee{
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		Status:      req.Status,
		Permissions: req.Permissions,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrDuplicateEmail):
			respondError(w, http.StatusConflict, "email already registered")
		case errors.Is(err, identity.ErrEmployerNotFound):
			respondError(w, http.StatusNotFound, "employer not found")
		default:
			slog.ErrorContext(r.Context(), "failed to create employee", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to create employee")
		}
		return
	}

	slog.InfoContext(r.Context(), "employee created",
		logger.UserID(claims.PrincipalID),
		logger.EmployeeID(employee.ID),
	)

	respondJSON(w, http.StatusCreated, toEmployeeResponse(employee))
}

// ListEmployees lists the calling owner's employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	employees, err := h.identityService.ListEmployees(r.Context(), claims.PrincipalID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list employees", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}

	out := make([]employeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeResponse(e))
	}

	respondJSON(w, http.StatusOK, out)
}

// GetEmployee retrieves one of the calling owner's employees. Ids owned
// by another tenant read as absent.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	employee, err := h.identityService.GetEmployee(r.Context(), claims.PrincipalID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, identity.ErrEmployeeNotFound) {
			respondError(w, http.StatusNotFound, "employee not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get employee", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get employee")
		return
	}

	respondJSON(w, http.StatusOK, toEmployeeResponse(employee))
}

// UpdateEmployee updates one of the calling owner's employees
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req updateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FullName == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "full_name and email are required")
		return
	}

	employee, err := h.identityService.UpdateEmployeeProfile(r.Context(), claims.PrincipalID, chi.URLParam(r, "id"), identity.UpdateEmployee{
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		Status:      req.Status,
		Permissions: req.Permissions,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmployeeNotFound):
			respondError(w, http.StatusNotFound, "employee not found")
		case errors.Is(err, identity.ErrDuplicateEmail):
			respondError(w, http.StatusConflict, "email already registered")
		default:
			slog.ErrorContext(r.Context(), "failed to update employee", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to update employee")
		}
		return
	}

	respondJSON(w, http.StatusOK, toEmployeeResponse(employee))
}

// DeleteEmployee removes one of the calling owner's employees
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.identityService.DeleteEmployee(r.Context(), claims.PrincipalID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, identity.ErrEmployeeNotFound) {
			respondError(w, http.StatusNotFound, "employee not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete employee", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete employee")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "employee deleted"})
}
