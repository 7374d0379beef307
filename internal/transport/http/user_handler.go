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
	"github.com/billflow/billflow/internal/token"
)

type updateProfileRequest struct {
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// ownAccountID resolves the {id} path parameter against the caller's
// claims. A mismatch reads the same as an absent account: the caller
// learns nothing about ids that are not theirs.
func ownAccountID(w http.ResponseWriter, r *http.Request) (string, token.Claims, bool) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return "", token.Claims{}, false
	}

	id := chi.URLParam(r, "id")
	if id != claims.PrincipalID {
		respondError(w, http.StatusNotFound, "user not found")
		return "", token.Claims{}, false
	}

	return id, claims, true
}

// GetProfile returns the caller's own account
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, claims, ok := ownAccountID(w, r)
	if !ok {
		return
	}

	if claims.Kind == identity.KindEmployee {
		h.getEmployeeProfile(w, r, claims)
		return
	}

	user, err := h.identityService.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get user", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// getEmployeeProfile serves /users/{id} for employee callers; the row is
// looked up within the employing owner's scope.
func (h *Handler) getEmployeeProfile(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	employee, err := h.identityService.GetEmployeeByEmail(r.Context(), claims.Subject)
	if err != nil || employee.ID != claims.PrincipalID {
		if err == nil || errors.Is(err, identity.ErrEmployeeNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get employee", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, toEmployeeResponse(employee))
}

// UpdateProfile updates the caller's own account
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, claims, ok := ownAccountID(w, r)
	if !ok {
		return
	}
	if claims.Kind != identity.KindUser {
		respondError(w, http.StatusForbidden, "owner account required")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FullName == "" {
		respondError(w, http.StatusBadRequest, "full_name is required")
		return
	}

	user, err := h.identityService.UpdateUserProfile(r.Context(), id, req.FullName, req.CompanyName)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to update user", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// ChangePassword rotates the caller's password after re-verifying the
// current one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, claims, ok := ownAccountID(w, r)
	if !ok {
		return
	}
	if claims.Kind != identity.KindUser {
		respondError(w, http.StatusForbidden, "owner account required")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "current_password and new_password are required")
		return
	}

	if err := h.identityService.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, identity.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "user not found")
		default:
			slog.ErrorContext(r.Context(), "failed to change password", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to change password")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// ForgotPassword starts a password reset. The response is the same
// whether or not the email exists; the token only ever travels by mail.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.identityService.ForgotPassword(r.Context(), req.Email); err != nil &&
		!errors.Is(err, identity.ErrUserNotFound) {
		slog.ErrorContext(r.Context(), "failed to start password reset", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to start password reset")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "reset instructions sent if the account exists"})
}

// ResetPassword consumes a pending reset token
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Token == "" || req.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "email, token and new_password are required")
		return
	}

	if err := h.identityService.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, identity.ErrUserNotFound), errors.Is(err, identity.ErrInvalidResetToken):
			respondError(w, http.StatusUnauthorized, "invalid or expired reset token")
		default:
			slog.ErrorContext(r.Context(), "failed to reset password", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to reset password")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// VerifyEmail consumes the verification token issued at registration
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Token == "" {
		respondError(w, http.StatusBadRequest, "email and token are required")
		return
	}

	if err := h.identityService.VerifyEmail(r.Context(), req.Email, req.Token); err != nil {
		switch {
		case errors.Is(err, identity.ErrUserNotFound), errors.Is(err, identity.ErrInvalidVerifyToken):
			respondError(w, http.StatusUnauthorized, "invalid verification token")
		default:
			slog.ErrorContext(r.Context(), "failed to verify email", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to verify email")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

// DeleteUser removes the caller's own account. Employees under the
// account go with it.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, _, ok := ownAccountID(w, r)
	if !ok {
		return
	}

	if err := h.identityService.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete user", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
