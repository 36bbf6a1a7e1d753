package testutil

import (
	"context"
	"sync"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// NotifyCall records a single message delivered to CaptureNotifier.
type NotifyCall struct {
	Level   Level
	Message string
}

// CaptureNotifier is a test double for port/notifier.Notifier.
// It records every call with a mutex so it is safe for concurrent use.
type CaptureNotifier struct {
	mu    sync.Mutex
	Calls []NotifyCall
}

func (c *CaptureNotifier) Info(_ context.Context, msg string)  { c.add(LevelInfo, msg) }
func (c *CaptureNotifier) Warn(_ context.Context, msg string)  { c.add(LevelWarn, msg) }
func (c *CaptureNotifier) Error(_ context.Context, msg string) { c.add(LevelError, msg) }

func (c *CaptureNotifier) add(level Level, msg string) {
	c.mu.Lock()
	c.Calls = append(c.Calls, NotifyCall{Level: level, Message: msg})
	c.mu.Unlock()
}

// Messages returns the messages recorded at level, in call order.
func (c *CaptureNotifier) Messages(level Level) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, call := range c.Calls {
		if call.Level == level {
			out = append(out, call.Message)
		}
	}
	return out
}

// Reset clears all recorded calls.
func (c *CaptureNotifier) Reset() {
	c.mu.Lock()
	c.Calls = nil
	c.mu.Unlock()
}
