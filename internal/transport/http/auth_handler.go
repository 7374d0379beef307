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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/billflow/billflow/internal/audit"
	"github.com/billflow/billflow/internal/federation"
	"github.com/billflow/billflow/internal/identity"
	"github.com/billflow/billflow/internal/observability/logger"
)

type registerRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type employeeTokenResponse struct {
	Token    string           `json:"token"`
	Employee employeeResponse `json:"employee"`
}

type userResponse struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
	Verified    bool   `json:"verified"`
}

type employeeResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	Permissions string `json:"permissions"`
}

func toUserResponse(u *identity.User) userResponse {
	return userResponse{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		CompanyName: u.CompanyName,
		Role:        u.Role,
		Verified:    u.Verified,
	}
}

func toEmployeeResponse(e *identity.Employee) employeeResponse {
	return employeeResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		FullName:    e.FullName,
		Email:       e.Email,
		CompanyName: e.CompanyName,
		Role:        e.Role,
		Status:      e.Status,
		Permissions: e.Permissions,
	}
}

// Register handles tenant owner registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FullName == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "full_name, email and password are required")
		return
	}

	user, err := h.identityService.RegisterUser(r.Context(), identity.NewUser{
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			respondError(w, http.StatusConflict, "email already registered")
			return
		}
		slog.ErrorContext(r.Context(), "registration failed",
			logger.Error(err),
			logger.Email(req.Email),
		)
		respondError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	h.authMetrics.Registrations.Add(r.Context(), 1,
		metric.WithAttributes(attribute.String("kind", string(identity.KindUser))))

	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login handles owner credential login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.authMetrics.LoginFailure.Add(r.Context(), 1,
			metric.WithAttributes(attribute.String("kind", string(identity.KindUser))))
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.issueToken(w, r, user.ID, user.Email, user.Role, identity.KindUser, func(signed string) any {
		return tokenResponse{Token: signed, User: toUserResponse(user)}
	})
}

// EmployeeLogin handles employee credential login
func (h *Handler) EmployeeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	employee, err := h.identityService.AuthenticateEmployee(r.Context(), req.Email, req.Password)
	if err != nil {
		h.authMetrics.LoginFailure.Add(r.Context(), 1,
			metric.WithAttributes(attribute.String("kind", string(identity.KindEmployee))))
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.issueToken(w, r, employee.ID, employee.Email, employee.Role, identity.KindEmployee, func(signed string) any {
		return employeeTokenResponse{Token: signed, Employee: toEmployeeResponse(employee)}
	})
}

// GoogleLogin exchanges a verified Google ID token for a local session
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IDToken == "" {
		respondError(w, http.StatusBadRequest, "id_token is required")
		return
	}

	user, err := h.federationService.Login(r.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, federation.ErrInvalidAssertion) {
			h.authMetrics.LoginFailure.Add(r.Context(), 1,
				metric.WithAttributes(attribute.String("kind", "federated")))
			respondError(w, http.StatusUnauthorized, "invalid identity assertion")
			return
		}
		slog.ErrorContext(r.Context(), "federated login failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypeFederatedLogin,
		ActorID:   user.ID,
		OwnerID:   user.ID,
		Resource:  "login",
		IPAddress: getClientIP(r),
		UserAgent: r.UserAgent(),
	})

	h.issueToken(w, r, user.ID, user.Email, user.Role, identity.KindUser, func(signed string) any {
		return tokenResponse{Token: signed, User: toUserResponse(user)}
	})
}

// issueToken signs a bearer token for an authenticated principal and
// writes the success response built by respond.
func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request, principalID, email, role string, kind identity.Kind, respond func(signed string) any) {
	signed, err := h.issuer.Issue(principalID, email, role, kind)
	if err != nil {
		slog.ErrorContext(r.Context(), "token issuance failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.authMetrics.LoginSuccess.Add(r.Context(), 1,
		metric.WithAttributes(attribute.String("kind", string(kind))))
	h.authMetrics.TokensIssued.Add(r.Context(), 1)

	slog.DebugContext(r.Context(), "token issued",
		logger.UserID(principalID),
		logger.Role(role),
		logger.PrincipalKind(string(kind)),
	)

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypeTokenIssued,
		ActorID:   principalID,
		Resource:  "token",
		Metadata:  map[string]any{audit.AttrKind: string(kind)},
		IPAddress: getClientIP(r),
		UserAgent: r.UserAgent(),
	})

	respondJSON(w, http.StatusOK, respond(signed))
}
