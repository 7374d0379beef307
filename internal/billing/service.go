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
	"fmt"
)

// Service provides owner-scoped customer operations
type Service struct {
	repo Repository
}

// NewService creates a new billing service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewCustomer contains the information needed to create a customer
type NewCustomer struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Type    string
}

// CreateCustomer creates a customer owned by ownerID
func (s *Service) CreateCustomer(ctx context.Context, ownerID string, nc NewCustomer) (*Customer, error) {
	customerType := nc.Type
	if customerType == "" {
		customerType = TypeIndividual
	}

	customer := &Customer{
		UserID:  ownerID,
		Name:    nc.Name,
		Email:   nc.Email,
		Phone:   nc.Phone,
		Address: nc.Address,
		Type:    customerType,
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	return customer, nil
}

// GetCustomer retrieves a customer within the owner's scope
func (s *Service) GetCustomer(ctx context.Context, ownerID string, id int64) (*Customer, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

// ListCustomers lists the owner's customers
func (s *Service) ListCustomers(ctx context.Context, ownerID string) ([]*Customer, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// UpdateCustomer updates a customer within the owner's scope
func (s *Service) UpdateCustomer(ctx context.Context, ownerID string, id int64, nc NewCustomer) (*Customer, error) {
	customer, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	customer.Name = nc.Name
	customer.Email = nc.Email
	customer.Phone = nc.Phone
	customer.Address = nc.Address
	if nc.Type != "" {
		customer.Type = nc.Type
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

// DeleteCustomer removes a customer within the owner's scope
func (s *Service) DeleteCustomer(ctx context.Context, ownerID string, id int64) error {
	return s.repo.Delete(ctx, ownerID, id)
}
