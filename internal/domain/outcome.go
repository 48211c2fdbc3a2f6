package domain

import (
	"time"

	"github.com/samvad-hq/samvad-wsclient/pkg/wsclient"
)

// Outcome is the serializable summary of one completed call.
type Outcome struct {
	CallID      string        `json:"call_id"`
	RequestID   string        `json:"request_id"`
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	StatusCode  int           `json:"status_code"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	DecodeError string        `json:"decode_error,omitempty"`
	BodyBytes   int           `json:"body_bytes"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration_ns"`
}

// NewOutcome summarizes res for the call identified by callID.
func NewOutcome(callID, requestID string, method wsclient.Method, res wsclient.Result, started, completed time.Time) Outcome {
	o := Outcome{
		CallID:      callID,
		RequestID:   requestID,
		Method:      method.String(),
		URL:         res.URL(),
		StatusCode:  res.StatusCode(),
		StartedAt:   started,
		CompletedAt: completed,
		Duration:    completed.Sub(started),
	}
	if s, ok := res.Success(); ok {
		o.Success = true
		o.DecodeError = s.ErrorJSONSerialization
		o.BodyBytes = len(s.Data)
		return o
	}
	if f, ok := res.Failure(); ok {
		o.Error = f.Error()
	}
	return o
}
