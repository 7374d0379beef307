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

package billing

import (
	"context"
	"errors"
	"testing"
)

// MockRepository is a simple in-memory implementation of Repository with
// the same owner scoping as the real store.
type MockRepository struct {
	customers map[int64]*Customer
	nextID    int64
}

func NewMockRepository() *MockRepository {
	return &MockRepository{customers: make(map[int64]*Customer), nextID: 1}
}

func (m *MockRepository) Create(ctx context.Context, customer *Customer) error {
	customer.ID = m.nextID
	m.nextID++
	m.customers[customer.ID] = customer
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, ownerID string, id int64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok || c.UserID != ownerID {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

func (m *MockRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Customer, error) {
	var out []*Customer
	for _, c := range m.customers {
		if c.UserID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockRepository) Update(ctx context.Context, customer *Customer) error {
	c, ok := m.customers[customer.ID]
	if !ok || c.UserID != customer.UserID {
		return ErrCustomerNotFound
	}
	m.customers[customer.ID] = customer
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	c, ok := m.customers[id]
	if !ok || c.UserID != ownerID {
		return ErrCustomerNotFound
	}
	delete(m.customers, id)
	return nil
}

// TestPurpose: Validates customer creation and the default type.
// Scope: Unit Test
// Expected: An omitted type defaults to Individual; an explicit type is
// kept.
// Test Case ID: BIL-01
func TestBilling_Service_CreateCustomer(t *testing.T) {
	s := NewService(NewMockRepository())
	ctx := context.Background()

	customer, err := s.CreateCustomer(ctx, "owner-1", NewCustomer{Name: "Acme"})
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if customer.Type != TypeIndividual {
		t.Errorf("expected default type %q, got %q", TypeIndividual, customer.Type)
	}
	if customer.ID == 0 {
		t.Error("expected assigned ID")
	}
	if customer.UserID != "owner-1" {
		t.Errorf("expected ownership link to owner-1, got %s", customer.UserID)
	}

	business, err := s.CreateCustomer(ctx, "owner-1", NewCustomer{Name: "Corp", Type: "Business"})
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if business.Type != "Business" {
		t.Errorf("expected explicit type kept, got %q", business.Type)
	}
}

// TestPurpose: Validates that single-customer operations are invisible
// across tenant boundaries.
// Scope: Unit Test
// Security: Tenant isolation
// Expected: Another owner's customer ID reads as ErrCustomerNotFound for
// get, update and delete; listings never mix owners.
// Test Case ID: BIL-02
func TestBilling_Service_OwnershipScoping(t *testing.T) {
	s := NewService(NewMockRepository())
	ctx := context.Background()

	mine, err := s.CreateCustomer(ctx, "owner-1", NewCustomer{Name: "Mine"})
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if _, err := s.CreateCustomer(ctx, "owner-2", NewCustomer{Name: "Theirs"}); err != nil {
		t.Fatalf("failed to create: %v", err)
	}

	if _, err := s.GetCustomer(ctx, "owner-2", mine.ID); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound for foreign owner, got %v", err)
	}
	if _, err := s.UpdateCustomer(ctx, "owner-2", mine.ID, NewCustomer{Name: "Hijack"}); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound for foreign update, got %v", err)
	}
	if err := s.DeleteCustomer(ctx, "owner-2", mine.ID); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound for foreign delete, got %v", err)
	}

	list, err := s.ListCustomers(ctx, "owner-1")
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Mine" {
		t.Errorf("expected only the owner's customer, got %v", list)
	}
}

// TestPurpose: Validates the update flow including the keep-type rule.
// Scope: Unit Test
// Expected: Updating with an empty type keeps the stored type.
// Test Case ID: BIL-03
func TestBilling_Service_UpdateCustomer(t *testing.T) {
	s := NewService(NewMockRepository())
	ctx := context.Background()

	customer, err := s.CreateCustomer(ctx, "owner-1", NewCustomer{Name: "Acme", Type: "Business"})
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}

	updated, err := s.UpdateCustomer(ctx, "owner-1", customer.ID, NewCustomer{Name: "Acme Renamed"})
	if err != nil {
		t.Fatalf("failed to update: %v", err)
	}
	if updated.Name != "Acme Renamed" {
		t.Errorf("expected renamed customer, got %q", updated.Name)
	}
	if updated.Type != "Business" {
		t.Errorf("expected stored type kept, got %q", updated.Type)
	}
}
