package domain

import (
	"context"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-wsclient/pkg/wsclient"
)

func TestNewOutcomeFromSuccess(t *testing.T) {
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	completed := started.Add(150 * time.Millisecond)
	res := wsclient.NewSuccess(wsclient.NewSuccessResult([]byte("plain"), "https://example.com/x", 404, nil))

	o := NewOutcome("call-1", "search", wsclient.MethodGet, res, started, completed)

	if !o.Success || o.StatusCode != 404 || o.URL != "https://example.com/x" {
		t.Fatalf("outcome = %+v", o)
	}
	if o.BodyBytes != 5 || o.DecodeError == "" {
		t.Fatalf("body summary = %d %q", o.BodyBytes, o.DecodeError)
	}
	if o.Duration != 150*time.Millisecond || o.Method != "GET" {
		t.Fatalf("duration/method = %v %s", o.Duration, o.Method)
	}
}

func TestNewOutcomeFromFailure(t *testing.T) {
	now := time.Now()
	res := wsclient.NewFailure(wsclient.NewErrorResult(context.DeadlineExceeded, "https://example.com", wsclient.SentinelStatusCode, nil))

	o := NewOutcome("call-2", "slow", wsclient.MethodPost, res, now, now)

	if o.Success || o.StatusCode != wsclient.SentinelStatusCode {
		t.Fatalf("outcome = %+v", o)
	}
	if o.Error == "" {
		t.Fatal("expected error text")
	}
}
