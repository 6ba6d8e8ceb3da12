// Package notify delivers user-visible status messages.
package notify

import (
	"log/slog"
	"sync"
)

// Notifier receives best-effort status messages.
type Notifier interface {
	Notify(msg string)
}

// Log writes notices to a slog logger at info level.
type Log struct {
	Logger *slog.Logger
}

// Notify logs msg.
func (l Log) Notify(msg string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(msg, "source", "notice")
}

// Recorder keeps notices in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

// Notify records msg.
func (r *Recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Messages returns the recorded notices in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}
