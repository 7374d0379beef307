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

// Package federation onboards principals asserted by a third-party
// identity provider. The only provider today is Google.
package federation

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/billflow/billflow/internal/identity"
)

// GoogleIssuer is the OIDC issuer for Google ID tokens.
const GoogleIssuer = "https://accounts.google.com"

// ErrInvalidAssertion covers every assertion failure. Bad signature,
// wrong audience and expiry are deliberately indistinguishable to the
// caller.
var ErrInvalidAssertion = errors.New("invalid identity assertion")

// Assertion is the verified identity extracted from a third-party token
type Assertion struct {
	Subject string
	Email   string
	Name    string
}

// AssertionVerifier cryptographically verifies a raw ID token and
// extracts the asserted identity.
type AssertionVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (Assertion, error)
}

// GoogleVerifier verifies Google ID tokens via OIDC discovery against
// the platform's registered client ID.
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier creates a verifier for the configured client ID.
// Discovery fetches Google's JWKS once and refreshes it as keys rotate.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	provider, err := oidc.NewProvider(ctx, GoogleIssuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	return &GoogleVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Verify checks the assertion's signature, audience and expiry
func (v *GoogleVerifier) Verify(ctx context.Context, rawIDToken string) (Assertion, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Assertion{}, ErrInvalidAssertion
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Assertion{}, ErrInvalidAssertion
	}
	if claims.Email == "" {
		return Assertion{}, ErrInvalidAssertion
	}

	return Assertion{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}, nil
}

// DisabledVerifier rejects every assertion. It stands in for the real
// verifier when no federated client ID is configured, so the login
// endpoint stays mounted but inert.
type DisabledVerifier struct{}

// Verify always fails
func (DisabledVerifier) Verify(context.Context, string) (Assertion, error) {
	return Assertion{}, ErrInvalidAssertion
}

// Service bridges verified assertions to local owner accounts
type Service struct {
	verifier AssertionVerifier
	identity *identity.Service
}

// NewService creates a new federation service
func NewService(verifier AssertionVerifier, identityService *identity.Service) *Service {
	return &Service{
		verifier: verifier,
		identity: identityService,
	}
}

// Login verifies a third-party assertion and resolves it to a local
// owner, creating a verified account on first sight.
func (s *Service) Login(ctx context.Context, rawIDToken string) (*identity.User, error) {
	assertion, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, ErrInvalidAssertion
	}

	user, err := s.identity.FederatedUser(ctx, assertion.Email, assertion.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve federated user: %w", err)
	}

	return user, nil
}
