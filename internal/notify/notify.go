// Package notify is the transient-message surface of the dashboard. Messages
// are fire-and-forget: the center keeps a small ring of recent items for the
// UI to replay and fans each message out to registered sinks (the websocket
// broadcast, the server log).
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

type Notification struct {
	ID        string `json:"id"`
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type Sink func(Notification)

const maxRecent = 100

type Center struct {
	mu     sync.Mutex
	recent []Notification
	sinks  []Sink
	now    func() time.Time
}

func NewCenter() *Center {
	return &Center{now: time.Now}
}

func NewCenterWithNow(now func() time.Time) *Center {
	return &Center{now: now}
}

func (c *Center) AddSink(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, s)
}

func (c *Center) Notify(level Level, message string) {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		Timestamp: c.now().UTC().Format(time.RFC3339),
	}

	c.mu.Lock()
	c.recent = append(c.recent, n)
	if len(c.recent) > maxRecent {
		c.recent = c.recent[len(c.recent)-maxRecent:]
	}
	sinks := make([]Sink, len(c.sinks))
	copy(sinks, c.sinks)
	c.mu.Unlock()

	for _, s := range sinks {
		s(n)
	}
}

// Recent returns the retained messages, oldest first.
func (c *Center) Recent() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.recent))
	copy(out, c.recent)
	return out
}
