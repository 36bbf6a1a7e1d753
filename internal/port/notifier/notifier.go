package notifier

import "context"

// Notifier surfaces human-readable messages to whoever is driving the
// repository (CLI output, server log, UI toast).
// [ISP] Services depend only on this, not on the concrete sink.
type Notifier interface {
	Info(ctx context.Context, msg string)
	Warn(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}
