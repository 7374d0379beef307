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

// Package token issues and validates the signed bearer credentials that
// downstream resource controllers trust. Tokens are stateless: issuance
// persists nothing, so a token cannot be revoked before expiry.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/billflow/billflow/internal/identity"
)

// ErrInvalidToken covers every verification failure. Callers never learn
// whether a token was malformed, expired, or signed with the wrong key.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload carried by every issued token. The registered
// subject is the principal's email; ID and Kind identify the principal
// across the two namespaces.
type Claims struct {
	jwt.RegisteredClaims
	PrincipalID string        `json:"id"`
	Role        string        `json:"role"`
	Kind        identity.Kind `json:"kind"`
}

// Config holds the signing parameters. The secret comes from
// configuration and is never embedded in code.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Issuer mints signed bearer tokens
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewIssuer creates a token issuer
func NewIssuer(cfg Config) *Issuer {
	return &Issuer{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
	}
}

// Issue builds a signed token for the given principal. Every call mints
// a fresh jti, so two tokens issued in the same instant for the same
// principal are still distinguishable.
func (i *Issuer) Issue(principalID, email, role string, kind identity.Kind) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
		PrincipalID: principalID,
		Role:        role,
		Kind:        kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Validator verifies inbound bearer tokens against the configured key,
// issuer and audience. There is no clock-skew allowance.
type Validator struct {
	secret []byte
	parser *jwt.Parser
}

// NewValidator creates a token validator
func NewValidator(cfg Config) *Validator {
	return &Validator{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
		),
	}
}

// Validate parses and verifies a bearer token string. The "Bearer "
// prefix is accepted and stripped if present.
func (v *Validator) Validate(bearerToken string) (Claims, error) {
	raw := strings.TrimPrefix(bearerToken, "Bearer ")
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	parsed, err := v.parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.Kind != identity.KindUser && claims.Kind != identity.KindEmployee {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
