package sinks

import (
	"time"

	"github.com/samvad-hq/samvad-wsclient/internal/domain"
)

// Event is the payload forwarded downstream.
type Event struct {
	Source    string         `json:"source"`
	RequestID string         `json:"request_id"`
	Outcome   domain.Outcome `json:"outcome"`
	EmittedAt time.Time      `json:"emitted_at"`
}

// NewEvent wraps an outcome produced by source.
func NewEvent(source string, o domain.Outcome) Event {
	return Event{
		Source:    source,
		RequestID: o.RequestID,
		Outcome:   o,
		EmittedAt: time.Now().UTC(),
	}
}

// attributes are the message attributes queue sinks attach to every event.
func (e Event) attributes() map[string]string {
	status := "failure"
	if e.Outcome.Success {
		status = "success"
	}
	return map[string]string{
		"request_id": e.RequestID,
		"outcome":    status,
	}
}
