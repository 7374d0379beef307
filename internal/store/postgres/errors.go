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
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/billflow/billflow/internal/billing"
	"github.com/billflow/billflow/internal/identity"
)

// mapConstraintError maps PostgreSQL constraint violations to domain
// errors. Uniqueness of emails rests on these constraints, not on the
// service-level pre-check, so a concurrent duplicate registration
// surfaces as ErrDuplicateEmail instead of a raw driver error.
func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		switch pgErr.ConstraintName {
		case "users_email_key", "employees_email_key":
			return identity.ErrDuplicateEmail
		}
		return fmt.Errorf("unique constraint violation: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.ForeignKeyViolation:
		switch pgErr.ConstraintName {
		case "employees_user_id_fkey":
			return identity.ErrEmployerNotFound
		case "customers_user_id_fkey":
			return billing.ErrOwnerNotFound
		}
		return fmt.Errorf("foreign key violation: %s: %w", pgErr.ConstraintName, err)

	default:
		return err
	}
}
