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
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/billflow/billflow/internal/audit"
	"github.com/billflow/billflow/internal/mail"
)

// Service provides account and credential business logic for both
// principal namespaces.
type Service struct {
	users         UserRepository
	employees     EmployeeRepository
	hasher        *PasswordHasher
	auditLogger   audit.Logger
	sender        mail.Sender
	resetTokenTTL time.Duration
}

// NewService creates a new identity service
func NewService(
	users UserRepository,
	employees EmployeeRepository,
	hasher *PasswordHasher,
	auditLogger audit.Logger,
	sender mail.Sender,
	resetTokenTTL time.Duration,
) *Service {
	return &Service{
		users:         users,
		employees:     employees,
		hasher:        hasher,
		auditLogger:   auditLogger,
		sender:        sender,
		resetTokenTTL: resetTokenTTL,
	}
}

// NewUser contains the information needed to register a tenant owner
type NewUser struct {
	FullName    string
	Email       string
	Password    string
	CompanyName string
}

// NewEmployee contains the information needed to register an employee
type NewEmployee struct {
	FullName    string
	Email       string
	Password    string
	Role        string
	Status      string
	Permissions string
}

// UpdateEmployee contains the fields an owner may change on an employee.
// The ownership link is not among them.
type UpdateEmployee struct {
	FullName    string
	Email       string
	Password    string
	Role        string
	Status      string
	Permissions string
}

// RegisterUser registers a new tenant owner. The email pre-check is a
// courtesy; uniqueness is guaranteed by the store's constraint, which
// surfaces as ErrDuplicateEmail under a concurrent duplicate.
func (s *Service) RegisterUser(ctx context.Context, nu NewUser) (*User, error) {
	if existing, err := s.users.GetByEmail(ctx, nu.Email); err == nil && existing != nil {
		return nil, ErrDuplicateEmail
	}

	passwordHash, err := s.hasher.Hash(nu.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verifyToken := uuid.NewString()
	user := &User{
		ID:           uuid.NewString(),
		FullName:     nu.FullName,
		Email:        nu.Email,
		PasswordHash: passwordHash,
		CompanyName:  nu.CompanyName,
		Role:         RoleOwner,
		Verified:     false,
		VerifyToken:  &verifyToken,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	_ = s.sender.Send(ctx, mail.Message{
		To:      user.Email,
		Subject: "Verify your BillFlow account",
		Body:    "Your verification token: " + verifyToken,
	})

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserCreated,
		ActorID:  user.ID,
		OwnerID:  user.ID,
		Resource: "user",
		Metadata: map[string]any{"email": user.Email},
	})

	return user, nil
}

// RegisterEmployee registers delegated staff under an existing owner.
// The employer's company name is copied onto the employee at creation
// time and never kept in sync afterwards.
func (s *Service) RegisterEmployee(ctx context.Context, ownerID string, ne NewEmployee) (*Employee, error) {
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrEmployerNotFound
		}
		return nil, fmt.Errorf("failed to resolve employer: %w", err)
	}

	if existing, err := s.employees.GetByEmail(ctx, ne.Email); err == nil && existing != nil {
		return nil, ErrDuplicateEmail
	}

	passwordHash, err := s.hasher.Hash(ne.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	status := ne.Status
	if status == "" {
		status = StatusActive
	}

	employee := &Employee{
		ID:           uuid.NewString(),
		UserID:       owner.ID,
		FullName:     ne.FullName,
		Email:        ne.Email,
		PasswordHash: passwordHash,
		CompanyName:  owner.CompanyName,
		Role:         ne.Role,
		Status:       status,
		Permissions:  ne.Permissions,
		Verified:     false,
	}

	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeEmployeeCreated,
		ActorID:  owner.ID,
		OwnerID:  owner.ID,
		Resource: "employee",
		Metadata: map[string]any{"email": employee.Email, "employee_id": employee.ID},
	})

	return employee, nil
}

// AuthenticateUser verifies owner credentials. Mismatch and absence are
// deliberately indistinguishable.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.auditFailedLogin(ctx, email, KindUser, "user_not_found")
		return nil, ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !valid {
		s.auditFailedLogin(ctx, email, KindUser, "invalid_password")
		return nil, ErrInvalidCredentials
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		ActorID:  user.ID,
		OwnerID:  user.ID,
		Resource: "login",
		Metadata: map[string]any{audit.AttrKind: string(KindUser)},
	})

	return user, nil
}

// AuthenticateEmployee verifies employee credentials
func (s *Service) AuthenticateEmployee(ctx context.Context, email, password string) (*Employee, error) {
	employee, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		s.auditFailedLogin(ctx, email, KindEmployee, "employee_not_found")
		return nil, ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(password, employee.PasswordHash)
	if err != nil || !valid {
		s.auditFailedLogin(ctx, email, KindEmployee, "invalid_password")
		return nil, ErrInvalidCredentials
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		ActorID:  employee.ID,
		OwnerID:  employee.UserID,
		Resource: "login",
		Metadata: map[string]any{audit.AttrKind: string(KindEmployee)},
	})

	return employee, nil
}

// FederatedUser resolves a verified third-party identity to a local
// owner account, creating one on first sight. Federated accounts are
// verified from the start and carry no usable password verifier.
func (s *Service) FederatedUser(ctx context.Context, email, fullName string) (*User, error) {
	if user, err := s.users.GetByEmail(ctx, email); err == nil {
		return user, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	// A random unguessable secret keeps the password login path closed
	// for accounts that only ever authenticated federated.
	passwordHash, err := s.hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		CompanyName:  "",
		Role:         RoleOwner,
		Verified:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent first login for the same email.
		if errors.Is(err, ErrDuplicateEmail) {
			return s.users.GetByEmail(ctx, email)
		}
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserCreated,
		ActorID:  user.ID,
		OwnerID:  user.ID,
		Resource: "user",
		Metadata: map[string]any{"email": user.Email, "federated": true},
	})

	return user, nil
}

// GetUser retrieves a tenant owner by ID
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateUserProfile updates the mutable profile fields
func (s *Service) UpdateUserProfile(ctx context.Context, userID, fullName, companyName string) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FullName = fullName
	user.CompanyName = companyName

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword replaces the owner's verifier after checking the
// current password.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	valid, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil || !valid {
		return ErrInvalidCredentials
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePasswordChanged,
		ActorID:  userID,
		OwnerID:  userID,
		Resource: "user_credentials",
	})

	return nil
}

// ForgotPassword generates a time-bounded reset token and hands it to
// the mail collaborator. The token is never returned to the caller.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(s.resetTokenTTL)

	if err := s.users.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return err
	}

	_ = s.sender.Send(ctx, mail.Message{
		To:      user.Email,
		Subject: "BillFlow password reset",
		Body:    "Your reset token: " + token,
	})

	return nil
}

// ResetPassword consumes a pending reset token and replaces the verifier
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if user.ResetToken == nil || *user.ResetToken != token || token == "" {
		return ErrInvalidResetToken
	}
	if user.ResetExpires == nil || time.Now().After(*user.ResetExpires) {
		return ErrInvalidResetToken
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePasswordReset,
		ActorID:  user.ID,
		OwnerID:  user.ID,
		Resource: "user_credentials",
	})

	return nil
}

// VerifyEmail consumes the verification token issued at registration
func (s *Service) VerifyEmail(ctx context.Context, email, token string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if user.VerifyToken == nil || *user.VerifyToken != token || token == "" {
		return ErrInvalidVerifyToken
	}

	if err := s.users.SetVerified(ctx, user.ID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeEmailVerified,
		ActorID:  user.ID,
		OwnerID:  user.ID,
		Resource: "user",
	})

	return nil
}

// DeleteUser removes an owner. Owned employees and customers go with it
// through the store's FK cascade.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserDeleted,
		ActorID:  userID,
		OwnerID:  userID,
		Resource: "user",
	})

	return nil
}

// GetEmployee retrieves an employee within the owner's scope
func (s *Service) GetEmployee(ctx context.Context, ownerID, employeeID string) (*Employee, error) {
	return s.employees.GetByID(ctx, ownerID, employeeID)
}

// GetEmployeeByEmail retrieves an employee by email. Employees reach
// their own row this way since they hold no owner scope of their own.
func (s *Service) GetEmployeeByEmail(ctx context.Context, email string) (*Employee, error) {
	return s.employees.GetByEmail(ctx, email)
}

// ListEmployees lists the owner's employees
func (s *Service) ListEmployees(ctx context.Context, ownerID string) ([]*Employee, error) {
	return s.employees.ListByOwner(ctx, ownerID)
}

// UpdateEmployeeProfile updates an employee within the owner's scope.
// A non-empty password replaces the stored verifier.
func (s *Service) UpdateEmployeeProfile(ctx context.Context, ownerID, employeeID string, ue UpdateEmployee) (*Employee, error) {
	employee, err := s.employees.GetByID(ctx, ownerID, employeeID)
	if err != nil {
		return nil, err
	}

	employee.FullName = ue.FullName
	employee.Email = ue.Email
	employee.Role = ue.Role
	employee.Status = ue.Status
	employee.Permissions = ue.Permissions

	if ue.Password != "" {
		hash, err := s.hasher.Hash(ue.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		employee.PasswordHash = hash
	}

	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, err
	}

	return employee, nil
}

// DeleteEmployee removes an employee within the owner's scope. Siblings
// and the owner are unaffected.
func (s *Service) DeleteEmployee(ctx context.Context, ownerID, employeeID string) error {
	if err := s.employees.Delete(ctx, ownerID, employeeID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeEmployeeDeleted,
		ActorID:  ownerID,
		OwnerID:  ownerID,
		Resource: "employee",
		Metadata: map[string]any{"employee_id": employeeID},
	})

	return nil
}

func (s *Service) auditFailedLogin(ctx context.Context, email string, kind Kind, reason string) {
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginFailed,
		Resource: email,
		Metadata: map[string]any{
			audit.AttrReason: reason,
			audit.AttrKind:   string(kind),
		},
	})
}
