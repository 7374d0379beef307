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

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps the OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance. When metrics are disabled the noop
// global meter is used.
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{meter: otel.Meter("noop")}, nil
	}
	return &Meter{meter: otel.Meter(serviceName)}, nil
}

// AuthMetrics holds the counters emitted by the authentication surface.
type AuthMetrics struct {
	LoginSuccess  metric.Int64Counter
	LoginFailure  metric.Int64Counter
	TokensIssued  metric.Int64Counter
	Registrations metric.Int64Counter
}

// NewAuthMetrics creates the authentication counters
func (m *Meter) NewAuthMetrics() (*AuthMetrics, error) {
	loginSuccess, err := m.counter("auth_login_success_total", "Successful logins")
	if err != nil {
		return nil, err
	}
	loginFailure, err := m.counter("auth_login_failure_total", "Failed logins")
	if err != nil {
		return nil, err
	}
	tokensIssued, err := m.counter("auth_tokens_issued_total", "Bearer tokens issued")
	if err != nil {
		return nil, err
	}
	registrations, err := m.counter("auth_registrations_total", "Accounts registered")
	if err != nil {
		return nil, err
	}

	return &AuthMetrics{
		LoginSuccess:  loginSuccess,
		LoginFailure:  loginFailure,
		TokensIssued:  tokensIssued,
		Registrations: registrations,
	}, nil
}

func (m *Meter) counter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}
