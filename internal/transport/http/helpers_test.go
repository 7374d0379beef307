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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/billflow/billflow/internal/audit"
	"github.com/billflow/billflow/internal/billing"
	"github.com/billflow/billflow/internal/federation"
	"github.com/billflow/billflow/internal/identity"
	"github.com/billflow/billflow/internal/mail"
	"github.com/billflow/billflow/internal/observability/metrics"
	"github.com/billflow/billflow/internal/token"
)

// In-memory repositories mirroring the scoping rules of the real store.

// memUserRepo mirrors the ON DELETE CASCADE of the real schema:
// deleting a user takes its employees and customers with it.
type memUserRepo struct {
	users     map[string]*identity.User
	employees *memEmployeeRepo
	customers *memCustomerRepo
}

func newMemUserRepo(employees *memEmployeeRepo, customers *memCustomerRepo) *memUserRepo {
	return &memUserRepo{
		users:     make(map[string]*identity.User),
		employees: employees,
		customers: customers,
	}
}

func (m *memUserRepo) Create(ctx context.Context, u *identity.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return identity.ErrDuplicateEmail
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*identity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return u, nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (m *memUserRepo) Update(ctx context.Context, u *identity.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return identity.ErrUserNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	u, ok := m.users[userID]
	if !ok {
		return identity.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetExpires = nil
	return nil
}

func (m *memUserRepo) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return identity.ErrUserNotFound
	}
	u.ResetToken = &token
	u.ResetExpires = &expiresAt
	return nil
}

func (m *memUserRepo) SetVerified(ctx context.Context, userID string) error {
	u, ok := m.users[userID]
	if !ok {
		return identity.ErrUserNotFound
	}
	u.Verified = true
	u.VerifyToken = nil
	return nil
}

func (m *memUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return identity.ErrUserNotFound
	}
	delete(m.users, id)
	for eid, e := range m.employees.employees {
		if e.UserID == id {
			delete(m.employees.employees, eid)
		}
	}
	for cid, c := range m.customers.customers {
		if c.UserID == id {
			delete(m.customers.customers, cid)
		}
	}
	return nil
}

type memEmployeeRepo struct {
	employees map[string]*identity.Employee
}

func newMemEmployeeRepo() *memEmployeeRepo {
	return &memEmployeeRepo{employees: make(map[string]*identity.Employee)}
}

func (m *memEmployeeRepo) Create(ctx context.Context, e *identity.Employee) error {
	for _, existing := range m.employees {
		if existing.Email == e.Email {
			return identity.ErrDuplicateEmail
		}
	}
	m.employees[e.ID] = e
	return nil
}

func (m *memEmployeeRepo) GetByID(ctx context.Context, ownerID, id string) (*identity.Employee, error) {
	e, ok := m.employees[id]
	if !ok || e.UserID != ownerID {
		return nil, identity.ErrEmployeeNotFound
	}
	return e, nil
}

func (m *memEmployeeRepo) GetByEmail(ctx context.Context, email string) (*identity.Employee, error) {
	for _, e := range m.employees {
		if e.Email == email {
			return e, nil
		}
	}
	return nil, identity.ErrEmployeeNotFound
}

func (m *memEmployeeRepo) ListByOwner(ctx context.Context, ownerID string) ([]*identity.Employee, error) {
	var out []*identity.Employee
	for _, e := range m.employees {
		if e.UserID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEmployeeRepo) Update(ctx context.Context, e *identity.Employee) error {
	existing, ok := m.employees[e.ID]
	if !ok || existing.UserID != e.UserID {
		return identity.ErrEmployeeNotFound
	}
	m.employees[e.ID] = e
	return nil
}

func (m *memEmployeeRepo) Delete(ctx context.Context, ownerID, id string) error {
	e, ok := m.employees[id]
	if !ok || e.UserID != ownerID {
		return identity.ErrEmployeeNotFound
	}
	delete(m.employees, id)
	return nil
}

type memCustomerRepo struct {
	customers map[int64]*billing.Customer
	nextID    int64
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{customers: make(map[int64]*billing.Customer), nextID: 1}
}

func (m *memCustomerRepo) Create(ctx context.Context, c *billing.Customer) error {
	c.ID = m.nextID
	m.nextID++
	m.customers[c.ID] = c
	return nil
}

func (m *memCustomerRepo) GetByID(ctx context.Context, ownerID string, id int64) (*billing.Customer, error) {
	c, ok := m.customers[id]
	if !ok || c.UserID != ownerID {
		return nil, billing.ErrCustomerNotFound
	}
	return c, nil
}

func (m *memCustomerRepo) ListByOwner(ctx context.Context, ownerID string) ([]*billing.Customer, error) {
	var out []*billing.Customer
	for _, c := range m.customers {
		if c.UserID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCustomerRepo) Update(ctx context.Context, c *billing.Customer) error {
	existing, ok := m.customers[c.ID]
	if !ok || existing.UserID != c.UserID {
		return billing.ErrCustomerNotFound
	}
	m.customers[c.ID] = c
	return nil
}

func (m *memCustomerRepo) Delete(ctx context.Context, ownerID string, id int64) error {
	c, ok := m.customers[id]
	if !ok || c.UserID != ownerID {
		return billing.ErrCustomerNotFound
	}
	delete(m.customers, id)
	return nil
}

type fakeAssertionVerifier struct {
	assertion federation.Assertion
	err       error
}

func (f fakeAssertionVerifier) Verify(ctx context.Context, rawIDToken string) (federation.Assertion, error) {
	return f.assertion, f.err
}

type testEnv struct {
	router   http.Handler
	identity *identity.Service
	issuer   *token.Issuer
}

func newTestEnv(t *testing.T, verifier federation.AssertionVerifier) *testEnv {
	t.Helper()

	auditLogger := audit.NewSlogLogger()
	employeeRepo := newMemEmployeeRepo()
	customerRepo := newMemCustomerRepo()
	identityService := identity.NewService(
		newMemUserRepo(employeeRepo, customerRepo),
		employeeRepo,
		identity.NewPasswordHasher(8192, 1, 1, 16, 32),
		auditLogger,
		mail.NewLogSender(),
		time.Hour,
	)
	billingService := billing.NewService(customerRepo)
	if verifier == nil {
		verifier = federation.DisabledVerifier{}
	}
	federationService := federation.NewService(verifier, identityService)

	tokenConfig := token.Config{
		Secret:   "test-secret-which-is-long-enough",
		Issuer:   "billflow",
		Audience: "billflow-clients",
		TTL:      2 * time.Hour,
	}

	meter, err := metrics.New(context.Background(), metrics.Config{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("failed to create meter: %v", err)
	}
	authMetrics, err := meter.NewAuthMetrics()
	if err != nil {
		t.Fatalf("failed to create auth metrics: %v", err)
	}

	h := NewHandler(
		identityService,
		federationService,
		billingService,
		token.NewIssuer(tokenConfig),
		token.NewValidator(tokenConfig),
		auditLogger,
		authMetrics,
	)

	return &testEnv{
		router:   NewRouter(h, NewRateLimiter(1000, 1000)),
		identity: identityService,
		issuer:   token.NewIssuer(tokenConfig),
	}
}

func (env *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// registerOwner provisions an owner through the public API and returns
// the account plus a valid bearer token.
func (env *testEnv) registerOwner(t *testing.T, email string) (userResponse, string) {
	t.Helper()

	rec := env.do(t, "POST", "/api/auth/register", "", registerRequest{
		FullName:    "Test Owner",
		Email:       email,
		Password:    "SecurePassword123",
		CompanyName: "Test Ltd",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed to register: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, "POST", "/api/auth/login", "", loginRequest{
		Email:    email,
		Password: "SecurePassword123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("failed to log in: status %d, body %s", rec.Code, rec.Body.String())
	}

	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return resp.User, resp.Token
}
