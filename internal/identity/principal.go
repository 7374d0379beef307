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

package identity

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrEmployerNotFound   = errors.New("employer not found")
	ErrDuplicateEmail     = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrInvalidVerifyToken = errors.New("invalid verification token")
)

// Kind discriminates the two principal namespaces. Users and employees are
// independently uniqued; an email may coincidentally appear in both.
type Kind string

const (
	KindUser     Kind = "user"
	KindEmployee Kind = "employee"
)

// RoleOwner is the role assigned to every tenant owner at registration.
const RoleOwner = "admin"

// StatusActive is the default employee status.
const StatusActive = "active"

// User is a tenant owner. Everything a tenant owns (employees, customers)
// hangs off its ID.
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	CompanyName  string
	Role         string
	Verified     bool
	ResetToken   *string
	ResetExpires *time.Time
	VerifyToken  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Employee is delegated staff belonging to exactly one User. The ownership
// link is immutable after creation. Permissions is an opaque payload
// interpreted by downstream resource controllers, never here.
type Employee struct {
	ID           string
	UserID       string
	FullName     string
	Email        string
	PasswordHash string
	CompanyName  string
	Role         string
	Status       string
	Permissions  string
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines the interface for tenant-owner persistence
type UserRepository interface {
	// Create creates a new user. Implementations must map a unique
	// violation on email to ErrDuplicateEmail.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update updates profile fields (full name, company name)
	Update(ctx context.Context, user *User) error

	// UpdatePassword replaces the stored verifier and clears any pending
	// reset token. No history is retained.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// SetResetToken stores a pending password-reset token
	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error

	// SetVerified marks the email as verified and clears the token
	SetVerified(ctx context.Context, userID string) error

	// Delete removes the user. Owned employees are removed by the
	// storage layer's cascade.
	Delete(ctx context.Context, id string) error
}

// EmployeeRepository defines the interface for employee persistence.
// Read and write operations that act on a single employee are scoped by
// the owning user's ID, so a cross-tenant lookup is indistinguishable
// from true absence.
type EmployeeRepository interface {
	// Create creates a new employee. Implementations must map a unique
	// violation on email to ErrDuplicateEmail and a missing employer to
	// ErrEmployerNotFound.
	Create(ctx context.Context, employee *Employee) error

	// GetByID retrieves an employee owned by ownerID
	GetByID(ctx context.Context, ownerID, id string) (*Employee, error)

	// GetByEmail retrieves an employee by email, used for login
	GetByEmail(ctx context.Context, email string) (*Employee, error)

	// ListByOwner lists all employees owned by ownerID
	ListByOwner(ctx context.Context, ownerID string) ([]*Employee, error)

	// Update updates an employee owned by ownerID
	Update(ctx context.Context, employee *Employee) error

	// Delete removes an employee owned by ownerID
	Delete(ctx context.Context, ownerID, id string) error
}
