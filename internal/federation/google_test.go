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

package federation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/billflow/billflow/internal/audit"
	"github.com/billflow/billflow/internal/identity"
	"github.com/billflow/billflow/internal/mail"
)

type fakeVerifier struct {
	assertion Assertion
	err       error
}

func (f fakeVerifier) Verify(ctx context.Context, rawIDToken string) (Assertion, error) {
	return f.assertion, f.err
}

type stubUserRepo struct {
	users map[string]*identity.User
}

func (r *stubUserRepo) Create(ctx context.Context, u *identity.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return identity.ErrDuplicateEmail
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) GetByID(ctx context.Context, id string) (*identity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return u, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (r *stubUserRepo) Update(context.Context, *identity.User) error { return nil }
func (r *stubUserRepo) UpdatePassword(context.Context, string, string) error {
	return nil
}
func (r *stubUserRepo) SetResetToken(context.Context, string, string, time.Time) error {
	return nil
}
func (r *stubUserRepo) SetVerified(context.Context, string) error { return nil }
func (r *stubUserRepo) Delete(context.Context, string) error      { return nil }

type stubEmployeeRepo struct{}

func (stubEmployeeRepo) Create(context.Context, *identity.Employee) error { return nil }
func (stubEmployeeRepo) GetByID(context.Context, string, string) (*identity.Employee, error) {
	return nil, identity.ErrEmployeeNotFound
}
func (stubEmployeeRepo) GetByEmail(context.Context, string) (*identity.Employee, error) {
	return nil, identity.ErrEmployeeNotFound
}
func (stubEmployeeRepo) ListByOwner(context.Context, string) ([]*identity.Employee, error) {
	return nil, nil
}
func (stubEmployeeRepo) Update(context.Context, *identity.Employee) error { return nil }
func (stubEmployeeRepo) Delete(context.Context, string, string) error     { return nil }

func newIdentityService() *identity.Service {
	return identity.NewService(
		&stubUserRepo{users: make(map[string]*identity.User)},
		stubEmployeeRepo{},
		identity.NewPasswordHasher(8192, 1, 1, 16, 32),
		audit.NewSlogLogger(),
		mail.NewLogSender(),
		time.Hour,
	)
}

// TestPurpose: Validates that a verified assertion resolves to a local
// owner account, creating one on first sight.
// Scope: Unit Test
// Expected: First login creates a verified owner; repeat login returns
// the same account.
// Test Case ID: FED-01
func TestFederation_Login(t *testing.T) {
	s := NewService(fakeVerifier{assertion: Assertion{
		Subject: "google-sub-1",
		Email:   "fed@example.com",
		Name:    "Fed User",
	}}, newIdentityService())

	user, err := s.Login(context.Background(), "raw-id-token")
	if err != nil {
		t.Fatalf("failed to log in: %v", err)
	}
	if user.Email != "fed@example.com" {
		t.Errorf("expected asserted email, got %s", user.Email)
	}
	if !user.Verified {
		t.Error("expected federated account to be verified")
	}
	if user.Role != identity.RoleOwner {
		t.Errorf("expected role %s, got %s", identity.RoleOwner, user.Role)
	}

	again, err := s.Login(context.Background(), "raw-id-token")
	if err != nil {
		t.Fatalf("failed to log in again: %v", err)
	}
	if again.ID != user.ID {
		t.Errorf("expected same account, got %s and %s", user.ID, again.ID)
	}
}

// TestPurpose: Validates that a failed assertion never reaches the
// account layer.
// Scope: Unit Test
// Security: Federated authentication
// Expected: ErrInvalidAssertion, no account created.
// Test Case ID: FED-02
func TestFederation_Login_InvalidAssertion(t *testing.T) {
	repo := &stubUserRepo{users: make(map[string]*identity.User)}
	identitySvc := identity.NewService(
		repo,
		stubEmployeeRepo{},
		identity.NewPasswordHasher(8192, 1, 1, 16, 32),
		audit.NewSlogLogger(),
		mail.NewLogSender(),
		time.Hour,
	)
	s := NewService(fakeVerifier{err: ErrInvalidAssertion}, identitySvc)

	if _, err := s.Login(context.Background(), "bad-token"); !errors.Is(err, ErrInvalidAssertion) {
		t.Errorf("expected ErrInvalidAssertion, got %v", err)
	}
	if len(repo.users) != 0 {
		t.Errorf("expected no account created, got %d", len(repo.users))
	}
}

// TestPurpose: Validates the disabled verifier used when no federated
// client is configured.
// Scope: Unit Test
// Expected: Every assertion fails.
// Test Case ID: FED-03
func TestFederation_DisabledVerifier(t *testing.T) {
	if _, err := (DisabledVerifier{}).Verify(context.Background(), "anything"); !errors.Is(err, ErrInvalidAssertion) {
		t.Errorf("expected ErrInvalidAssertion, got %v", err)
	}
}
