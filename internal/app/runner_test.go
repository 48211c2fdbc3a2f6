package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/samvad-hq/samvad-wsclient/internal/config"
	"github.com/samvad-hq/samvad-wsclient/internal/logger"
	"github.com/samvad-hq/samvad-wsclient/pkg/wsclient"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		AppName:                "samvad-wsclient-test",
		RequestTimeout:         2 * time.Second,
		HistoryType:            "bbolt",
		HistoryPath:            filepath.Join(dir, "history.db"),
		HistoryTTL:             time.Hour,
		HistoryCleanupInterval: time.Hour,
	}
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("call-%d", n.Add(1)) }
}

func TestRunnerRunOnceRecordsAndForwards(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			if r.URL.Query().Get("q") != "tea" {
				http.Error(w, "bad query", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"hits":3}`))
		case "/items":
			body, _ := io.ReadAll(r.Body)
			_, _ = w.Write(body)
		}
	}))
	defer api.Close()

	forwarded := make(chan map[string]any, 4)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt map[string]any
		_ = json.NewDecoder(r.Body).Decode(&evt)
		forwarded <- evt
		w.WriteHeader(http.StatusNoContent)
	}))
	defer sink.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.RequestsFile = writeFile(t, dir, "requests.yaml", fmt.Sprintf(`
requests:
  - id: search
    url: %[1]s/search
    payload:
      object:
        q: tea
  - id: create
    url: %[1]s/items
    method: POST
    encoding:
      type: json
    payload:
      object:
        name: masala
  - id: skipped
    url: %[1]s/never
    enabled: false
`, api.URL))
	cfg.SinksFile = writeFile(t, dir, "sinks.yaml", fmt.Sprintf(`
sinks:
  - id: audit
    type: http
    http:
      url: %s
`, sink.URL))

	r, err := NewRunner(context.Background(), cfg, nil, WithIDGenerator(sequentialIDs()))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer r.Close()

	outcomes, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].RequestID != "search" || outcomes[0].StatusCode != 200 || !outcomes[0].Success {
		t.Fatalf("search outcome = %+v", outcomes[0])
	}
	if outcomes[1].RequestID != "create" || outcomes[1].BodyBytes != len(`{"name":"masala"}`) {
		t.Fatalf("create outcome = %+v", outcomes[1])
	}

	stored, found, err := r.History().Get("call-1")
	if err != nil || !found || stored.RequestID != "search" {
		t.Fatalf("history lookup = %+v, %v, %v", stored, found, err)
	}

	for _, want := range []string{"search", "create"} {
		evt := <-forwarded
		if evt["request_id"] != want {
			t.Fatalf("forwarded request_id = %v, want %s", evt["request_id"], want)
		}
		if evt["source"] != cfg.AppName {
			t.Fatalf("forwarded source = %v", evt["source"])
		}
	}
}

func TestRunnerTransportFailureIsOutcome(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := api.URL
	api.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.HistoryType = "none"
	cfg.RequestsFile = writeFile(t, dir, "requests.yaml", fmt.Sprintf("requests:\n  - id: down\n    url: %s/ping\n", url))

	core, logs := observer.New(zapcore.InfoLevel)
	r, err := NewRunner(context.Background(), cfg, logger.New(zap.New(core)))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer r.Close()

	outcomes, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Success || outcomes[0].StatusCode != wsclient.SentinelStatusCode {
		t.Fatalf("outcome = %+v", outcomes)
	}
	if logs.FilterMessage("request failed").Len() != 1 {
		t.Fatalf("expected a request failed log entry")
	}
}

func TestRunnerAPILogging(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer api.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.HistoryType = "none"
	cfg.APILogEnabled = true
	cfg.APILogCategories = "url,status_code"
	cfg.RequestsFile = writeFile(t, dir, "requests.yaml", fmt.Sprintf("requests:\n  - id: ok\n    url: %s\n", api.URL))

	core, logs := observer.New(zapcore.DebugLevel)
	r, err := NewRunner(context.Background(), cfg, nil, WithZap(zap.New(core)))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer r.Close()

	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if logs.FilterMessage("Status Code =>").Len() != 1 {
		t.Fatalf("expected status code entry, got %d entries", logs.Len())
	}
	if logs.FilterMessage("Response =>").Len() != 0 {
		t.Fatal("response body category should be off")
	}

	r.APILogger().SetEnabled(false)
	before := logs.Len()
	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if logs.Len() != before {
		t.Fatal("disabled api logger should stay silent")
	}
}

func TestRunnerRunStopsOnCancel(t *testing.T) {
	var hits atomic.Int64
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer api.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.HistoryType = "none"
	cfg.RunInterval = 20 * time.Millisecond
	cfg.RequestsFile = writeFile(t, dir, "requests.yaml", fmt.Sprintf("requests:\n  - id: ping\n    url: %s\n", api.URL))

	r, err := NewRunner(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if hits.Load() < 2 {
		t.Fatalf("expected repeated passes, got %d hits", hits.Load())
	}
}

func TestNewRunnerErrors(t *testing.T) {
	if _, err := NewRunner(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.RequestsFile = writeFile(t, dir, "requests.yaml", "requests:\n  - id: a\n    url: https://example.com\n    enabled: false\n")
	_, err := NewRunner(context.Background(), cfg, nil)
	if err == nil || !strings.Contains(err.Error(), "no enabled requests") {
		t.Fatalf("err = %v", err)
	}

	cfg.RequestsFile = writeFile(t, dir, "ok.yaml", "requests:\n  - id: a\n    url: https://example.com\n")
	cfg.APILogCategories = "url,nope"
	if _, err := NewRunner(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown api log category")
	}
}
