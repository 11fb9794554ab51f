// Package notify delivers builder notices (the toast messages the editor
// shows) to whoever is listening. The builder never blocks on delivery; a
// notice is advisory and losing one is acceptable.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Severity classifies a notice
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is one message addressed to an author's active editor sessions
type Notice struct {
	AuthorID string    `json:"author_id"`
	DraftID  string    `json:"draft_id,omitempty"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

// Notifier fans notices out to listeners
type Notifier interface {
	Notify(n Notice)
}

// LogNotifier writes notices to the structured log. It is the fallback when
// no websocket hub is running.
type LogNotifier struct{}

// Notify implements Notifier
func (LogNotifier) Notify(n Notice) {
	slog.Info("notice",
		"author_id", n.AuthorID,
		"draft_id", n.DraftID,
		"severity", string(n.Severity),
		"message", n.Message,
	)
}

// Recorder captures notices for inspection in tests
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of everything recorded so far
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}
