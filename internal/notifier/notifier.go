// Package notifier
package notifier

import "context"

// Notifier sends operator-facing messages.
type Notifier interface {
	Send(ctx context.Context, msg string) error
	SendWithRetry(ctx context.Context, msg string) error
}

// Nop discards every message. It is used when no channel is configured.
type Nop struct{}

func (Nop) Send(context.Context, string) error          { return nil }
func (Nop) SendWithRetry(context.Context, string) error { return nil }
