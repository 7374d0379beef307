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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/billflow/billflow/internal/identity"
)

// EmployeeRepository implements identity.EmployeeRepository. Single-row
// reads and writes are filtered by the owning user's ID so a cross-tenant
// access comes back as not found.
type EmployeeRepository struct {
	db *DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `
	id, user_id, full_name, email, password_hash, company_name,
	role, status, permissions, verified, created_at, updated_at`

// Create creates a new employee
func (r *EmployeeRepository) Create(ctx context.Context, employee *identity.Employee) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO employees (
			id, user_id, full_name, email, password_hash, company_name,
			role, status, permissions, verified, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		employee.ID, employee.UserID, employee.FullName, employee.Email,
		employee.PasswordHash, employee.CompanyName, employee.Role,
		employee.Status, employee.Permissions, employee.Verified,
		now, now,
	)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to insert employee: %w", err)
	}

	employee.CreatedAt = now
	employee.UpdatedAt = now

	return nil
}

// GetByID retrieves an employee owned by ownerID
func (r *EmployeeRepository) GetByID(ctx context.Context, ownerID, id string) (*identity.Employee, error) {
	row := r.db.pool.QueryRow(ctx,
		`SELECT`+employeeColumns+` FROM employees WHERE user_id = $1 AND id = $2`,
		ownerID, id)
	return scanEmployee(row)
}

// GetByEmail retrieves an employee by email for the login path
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*identity.Employee, error) {
	row := r.db.pool.QueryRow(ctx,
		`SELECT`+employeeColumns+` FROM employees WHERE email = $1`, email)
	return scanEmployee(row)
}

// ListByOwner lists all employees owned by ownerID
func (r *EmployeeRepository) ListByOwner(ctx context.Context, ownerID string) ([]*identity.Employee, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT`+employeeColumns+` FROM employees WHERE user_id = $1 ORDER BY created_at`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := []*identity.Employee{}
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	return employees, nil
}

// Update updates an employee owned by its UserID
func (r *EmployeeRepository) Update(ctx context.Context, employee *identity.Employee) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE employees SET
			full_name = $3, email = $4, password_hash = $5,
			role = $6, status = $7, permissions = $8, updated_at = $9
		WHERE user_id = $1 AND id = $2
	`,
		employee.UserID, employee.ID, employee.FullName, employee.Email,
		employee.PasswordHash, employee.Role, employee.Status,
		employee.Permissions, time.Now(),
	)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to update employee: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrEmployeeNotFound
	}
	return nil
}

// Delete removes an employee owned by ownerID. No cascade.
func (r *EmployeeRepository) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.db.pool.Exec(ctx,
		`DELETE FROM employees WHERE user_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrEmployeeNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (*identity.Employee, error) {
	var employee identity.Employee
	err := row.Scan(
		&employee.ID, &employee.UserID, &employee.FullName, &employee.Email,
		&employee.PasswordHash, &employee.CompanyName, &employee.Role,
		&employee.Status, &employee.Permissions, &employee.Verified,
		&employee.CreatedAt, &employee.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &employee, nil
}
