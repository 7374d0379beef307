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

// Package billing holds the customer records a tenant owns. It consumes
// only an authenticated owner ID; every query is filtered by it, so a
// cross-tenant lookup is indistinguishable from true absence.
package billing

import (
	"context"
	"errors"
)

// ErrCustomerNotFound is returned when a customer does not exist within
// the acting owner's scope.
var ErrCustomerNotFound = errors.New("customer not found")

// ErrOwnerNotFound is returned when the owning user no longer exists,
// for example when it was deleted between claim issuance and the write.
var ErrOwnerNotFound = errors.New("owner not found")

// TypeIndividual is the default customer type.
const TypeIndividual = "Individual"

// Customer is a billing customer owned by a single tenant
type Customer struct {
	ID      int64
	UserID  string
	Name    string
	Email   string
	Phone   string
	Address string
	Type    string
}

// Repository defines the interface for customer persistence. Every
// method takes the owning user's ID and scopes its query by it.
type Repository interface {
	// Create inserts a customer owned by ownerID and sets its ID
	Create(ctx context.Context, customer *Customer) error

	// GetByID retrieves a customer owned by ownerID
	GetByID(ctx context.Context, ownerID string, id int64) (*Customer, error)

	// ListByOwner lists all customers owned by ownerID
	ListByOwner(ctx context.Context, ownerID string) ([]*Customer, error)

	// Update updates a customer owned by ownerID
	Update(ctx context.Context, customer *Customer) error

	// Delete removes a customer owned by ownerID
	Delete(ctx context.Context, ownerID string, id int64) error
}
