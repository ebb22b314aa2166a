package notify

import (
	"context"
	"sync"
)

// SentMessage captures one dispatched notification for inspection.
type SentMessage struct {
	Subject    string
	Body       string
	Recipients []string
}

// MemoryDispatcher records messages in memory for development and tests.
type MemoryDispatcher struct {
	mu       sync.Mutex
	messages []SentMessage
	err      error
}

// NewMemoryDispatcher constructs a MemoryDispatcher.
func NewMemoryDispatcher() *MemoryDispatcher {
	return &MemoryDispatcher{}
}

// FailWith makes every subsequent Send return err.
func (d *MemoryDispatcher) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Send records the message.
func (d *MemoryDispatcher) Send(_ context.Context, subject, body string, recipients []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	to := make([]string, len(recipients))
	copy(to, recipients)
	d.messages = append(d.messages, SentMessage{Subject: subject, Body: body, Recipients: to})
	return nil
}

// Messages returns a copy of everything sent so far.
func (d *MemoryDispatcher) Messages() []SentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]SentMessage, len(d.messages))
	copy(out, d.messages)
	return out
}

// NoopDispatcher drops every message. Useful when notification delivery is
// disabled by configuration.
type NoopDispatcher struct{}

// NewNoopDispatcher constructs a NoopDispatcher.
func NewNoopDispatcher() *NoopDispatcher {
	return &NoopDispatcher{}
}

// Send does nothing.
func (NoopDispatcher) Send(context.Context, string, string, []string) error {
	return nil
}
