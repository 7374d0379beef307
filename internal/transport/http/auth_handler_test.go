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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/billflow/billflow/internal/federation"
	"github.com/billflow/billflow/internal/identity"
)

// TestPurpose: Validates the registration endpoint including validation
// and the duplicate-email conflict.
// Scope: Unit Test
// Expected: 201 with the account (no credential material), 400 for
// missing fields, 409 for a duplicate email.
// Test Case ID: API-01
func TestAuth_Register(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, "POST", "/api/auth/register", "", registerRequest{
		FullName:    "Ada Owner",
		Email:       "ada@example.com",
		Password:    "SecurePassword123",
		CompanyName: "Ada Ltd",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp userResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "ada@example.com", resp.Email)
	assert.Equal(t, identity.RoleOwner, resp.Role)
	assert.False(t, resp.Verified)
	assert.NotContains(t, rec.Body.String(), "SecurePassword123")

	rec = env.do(t, "POST", "/api/auth/register", "", registerRequest{
		FullName: "Ada Again",
		Email:    "ada@example.com",
		Password: "AnotherPassword1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, "POST", "/api/auth/register", "", registerRequest{Email: "no-name@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestPurpose: Validates owner login and the uniform failure response.
// Scope: Unit Test
// Security: Authentication mechanisms
// Expected: 200 with a bearer token for correct credentials; 401 with an
// identical message for wrong password and unknown email.
// Test Case ID: API-02
func TestAuth_Login(t *testing.T) {
	env := newTestEnv(t, nil)
	env.registerOwner(t, "ada@example.com")

	rec := env.do(t, "POST", "/api/auth/login", "", loginRequest{
		Email:    "ada@example.com",
		Password: "SecurePassword123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp tokenResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	wrongPassword := env.do(t, "POST", "/api/auth/login", "", loginRequest{
		Email:    "ada@example.com",
		Password: "WrongPassword",
	})
	unknownEmail := env.do(t, "POST", "/api/auth/login", "", loginRequest{
		Email:    "nobody@example.com",
		Password: "SecurePassword123",
	})
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

// TestPurpose: Validates employee login through the dedicated endpoint.
// Scope: Unit Test
// Expected: 200 with a token carrying the employee namespace; owner
// credentials do not work on the employee endpoint.
// Test Case ID: API-03
func TestAuth_EmployeeLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	owner, ownerToken := env.registerOwner(t, "ada@example.com")

	rec := env.do(t, "POST", "/api/employees/", ownerToken, createEmployeeRequest{
		FullName: "Eve Employee",
		Email:    "eve@example.com",
		Password: "EmployeePass123",
		Role:     "clerk",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, "POST", "/api/auth/employee-login", "", loginRequest{
		Email:    "eve@example.com",
		Password: "EmployeePass123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp employeeTokenResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, owner.ID, resp.Employee.UserID)

	// Owner credentials live in the other namespace.
	rec = env.do(t, "POST", "/api/auth/employee-login", "", loginRequest{
		Email:    "ada@example.com",
		Password: "SecurePassword123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestPurpose: Validates federated login over a verified assertion.
// Scope: Unit Test
// Security: Federated authentication
// Expected: 200 with a token for a valid assertion, 401 for a failed
// one.
// Test Case ID: API-04
func TestAuth_GoogleLogin(t *testing.T) {
	env := newTestEnv(t, fakeAssertionVerifier{assertion: federation.Assertion{
		Subject: "google-sub-1",
		Email:   "fed@example.com",
		Name:    "Fed User",
	}})

	rec := env.do(t, "POST", "/api/auth/google-login", "", googleLoginRequest{IDToken: "raw-token"})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp tokenResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "fed@example.com", resp.User.Email)
	assert.True(t, resp.User.Verified)

	failing := newTestEnv(t, fakeAssertionVerifier{err: federation.ErrInvalidAssertion})
	rec = failing.do(t, "POST", "/api/auth/google-login", "", googleLoginRequest{IDToken: "bad-token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, "POST", "/api/auth/google-login", "", googleLoginRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
