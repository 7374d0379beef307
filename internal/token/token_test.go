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

package token

import (
	"errors"
	"testing"
	"time"

	"github.com/billflow/billflow/internal/identity"
)

func testConfig() Config {
	return Config{
		Secret:   "test-secret-which-is-long-enough",
		Issuer:   "billflow",
		Audience: "billflow-clients",
		TTL:      2 * time.Hour,
	}
}

// TestPurpose: Validates the issue/validate round trip and claim content.
// Scope: Unit Test
// Security: Bearer token integrity
// Expected: A freshly issued token validates and carries the principal's
// ID, email subject, role and kind; each issuance mints a distinct jti.
// Test Case ID: TOK-01
func TestToken_IssueAndValidate(t *testing.T) {
	cfg := testConfig()
	issuer := NewIssuer(cfg)
	validator := NewValidator(cfg)

	signed, err := issuer.Issue("user-1", "ada@example.com", identity.RoleOwner, identity.KindUser)
	if err != nil {
		t.Fatalf("failed to issue: %v", err)
	}

	claims, err := validator.Validate(signed)
	if err != nil {
		t.Fatalf("failed to validate: %v", err)
	}
	if claims.PrincipalID != "user-1" {
		t.Errorf("expected principal ID user-1, got %s", claims.PrincipalID)
	}
	if claims.Subject != "ada@example.com" {
		t.Errorf("expected subject email, got %s", claims.Subject)
	}
	if claims.Role != identity.RoleOwner {
		t.Errorf("expected role %s, got %s", identity.RoleOwner, claims.Role)
	}
	if claims.Kind != identity.KindUser {
		t.Errorf("expected kind %s, got %s", identity.KindUser, claims.Kind)
	}

	exp := claims.ExpiresAt.Time
	iat := claims.IssuedAt.Time
	if got := exp.Sub(iat); got != cfg.TTL {
		t.Errorf("expected lifetime %v, got %v", cfg.TTL, got)
	}

	second, err := issuer.Issue("user-1", "ada@example.com", identity.RoleOwner, identity.KindUser)
	if err != nil {
		t.Fatalf("failed to issue: %v", err)
	}
	secondClaims, err := validator.Validate(second)
	if err != nil {
		t.Fatalf("failed to validate: %v", err)
	}
	if secondClaims.ID == claims.ID {
		t.Error("expected distinct jti per issuance")
	}
}

// TestPurpose: Validates that the "Bearer " scheme prefix is stripped.
// Scope: Unit Test
// Expected: Validation succeeds with and without the prefix.
// Test Case ID: TOK-02
func TestToken_Validate_BearerPrefix(t *testing.T) {
	cfg := testConfig()
	issuer := NewIssuer(cfg)
	validator := NewValidator(cfg)

	signed, err := issuer.Issue("user-1", "ada@example.com", identity.RoleOwner, identity.KindUser)
	if err != nil {
		t.Fatalf("failed to issue: %v", err)
	}

	if _, err := validator.Validate("Bearer " + signed); err != nil {
		t.Errorf("expected prefixed token to validate, got %v", err)
	}
}

// TestPurpose: Validates rejection of forged, foreign and expired tokens.
// Scope: Unit Test
// Security: Bearer token integrity
// Expected: Every failure mode collapses to ErrInvalidToken.
// Test Case ID: TOK-03
func TestToken_Validate_Rejections(t *testing.T) {
	cfg := testConfig()
	validator := NewValidator(cfg)

	t.Run("garbage", func(t *testing.T) {
		for _, raw := range []string{"", "Bearer ", "not-a-token", "a.b.c"} {
			if _, err := validator.Validate(raw); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken for %q, got %v", raw, err)
			}
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		other := testConfig()
		other.Secret = "a-different-signing-secret-entirely"
		signed, err := NewIssuer(other).Issue("user-1", "ada@example.com", identity.RoleOwner, identity.KindUser)
		if err != nil {
			t.Fatalf("failed to issue: %v", err)
		}
		if _, err := validator.Validate(signed); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := testConfig()
		other.Issuer = "someone-else"
		signed, err := NewIssuer(other).Issue("user-1", "ada@example.com", identity.RoleOwner, identity.KindUser)
		if err != nil {
			t.Fatalf("failed to issue: %v", err)
		}
		if _, err := validator.Validate(signed); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := testConfig()
		other.Audience = "someone-elses-clients"
		signed, err := NewIssuer(other).Issue("user-1", "ada@example.com", identity.RoleOwner, identity.KindUser)
		if err != nil {
			t.Fatalf("failed to issue: %v", err)
		}
		if _, err := validator.Validate(signed); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		expired := testConfig()
		expired.TTL = -time.Minute
		signed, err := NewIssuer(expired).Issue("user-1", "ada@example.com", identity.RoleOwner, identity.KindUser)
		if err != nil {
			t.Fatalf("failed to issue: %v", err)
		}
		if _, err := validator.Validate(signed); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		signed, err := NewIssuer(cfg).Issue("user-1", "ada@example.com", identity.RoleOwner, identity.Kind("robot"))
		if err != nil {
			t.Fatalf("failed to issue: %v", err)
		}
		if _, err := validator.Validate(signed); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for unknown kind, got %v", err)
		}
	})
}
