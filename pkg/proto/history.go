package proto

import (
	"fmt"
	"sync"
	"time"
)

// History is the append-only, request-scoped message log. Appends preserve
// arrival order and timestamps never decrease; concurrent appenders are safe.
type History struct {
	mu        sync.Mutex
	requestID string
	msgs      []*AgentMsg
	lastTS    time.Time
}

func NewHistory(requestID string) *History {
	return &History{requestID: requestID}
}

// RequestID returns the request this history belongs to.
func (h *History) RequestID() string {
	return h.requestID
}

// Append validates the message and records an immutable copy. A message whose
// timestamp precedes the previous entry is stamped with the previous entry's
// timestamp so the log stays non-decreasing even across clock skew.
func (h *History) Append(msg *AgentMsg) error {
	if msg == nil {
		return fmt.Errorf("cannot append nil message")
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message for history: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entry := msg.Clone()
	if entry.Timestamp.Before(h.lastTS) {
		entry.Timestamp = h.lastTS
	}
	h.lastTS = entry.Timestamp
	h.msgs = append(h.msgs, entry)
	return nil
}

// Len returns the number of recorded messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}

// Messages returns copies of all recorded messages in arrival order.
func (h *History) Messages() []*AgentMsg {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*AgentMsg, len(h.msgs))
	for i, m := range h.msgs {
		out[i] = m.Clone()
	}
	return out
}

// ByRole returns copies of messages sent by the given role, in arrival order.
func (h *History) ByRole(from Role) []*AgentMsg {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*AgentMsg
	for _, m := range h.msgs {
		if m.FromRole == from {
			out = append(out, m.Clone())
		}
	}
	return out
}
