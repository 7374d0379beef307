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

// Package mail defines the delivery boundary for reset and verification
// tokens. Real delivery is an external collaborator; the core only sees
// the Sender interface.
package mail

import (
	"context"
	"log/slog"
)

// Message is an outbound mail message
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages to principals
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is a stub Sender that records messages to the application
// log instead of delivering them.
type LogSender struct{}

// NewLogSender creates a new log-backed sender
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the message
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "mail_send",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("component", "mail"),
	)
	return nil
}
