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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/billflow/billflow/internal/billing"
)

// CustomerRepository implements billing.Repository. Every query is
// filtered by the owning user's ID.
type CustomerRepository struct {
	db *DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts a customer and sets its generated ID
func (r *CustomerRepository) Create(ctx context.Context, customer *billing.Customer) error {
	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO customers (user_id, name, email, phone, address, type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		customer.UserID, customer.Name, customer.Email,
		customer.Phone, customer.Address, customer.Type,
	).Scan(&customer.ID)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

// GetByID retrieves a customer owned by ownerID
func (r *CustomerRepository) GetByID(ctx context.Context, ownerID string, id int64) (*billing.Customer, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, user_id, name, email, phone, address, type
		FROM customers WHERE user_id = $1 AND id = $2
	`, ownerID, id)
	return scanCustomer(row)
}

// ListByOwner lists all customers owned by ownerID
func (r *CustomerRepository) ListByOwner(ctx context.Context, ownerID string) ([]*billing.Customer, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, user_id, name, email, phone, address, type
		FROM customers WHERE user_id = $1 ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []*billing.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	return customers, nil
}

// Update updates a customer owned by its UserID
func (r *CustomerRepository) Update(ctx context.Context, customer *billing.Customer) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE customers SET name = $3, email = $4, phone = $5, address = $6, type = $7
		WHERE user_id = $1 AND id = $2
	`,
		customer.UserID, customer.ID, customer.Name, customer.Email,
		customer.Phone, customer.Address, customer.Type,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return billing.ErrCustomerNotFound
	}
	return nil
}

// Delete removes a customer owned by ownerID
func (r *CustomerRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	result, err := r.db.pool.Exec(ctx,
		`DELETE FROM customers WHERE user_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return billing.ErrCustomerNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*billing.Customer, error) {
	var customer billing.Customer
	err := row.Scan(
		&customer.ID, &customer.UserID, &customer.Name, &customer.Email,
		&customer.Phone, &customer.Address, &customer.Type,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}
