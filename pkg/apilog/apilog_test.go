package apilog

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/samvad-hq/samvad-wsclient/pkg/wsclient"
)

func newObserved(opts ...Option) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(zap.New(core), opts...), logs
}

func TestDisabledLoggerWritesNothing(t *testing.T) {
	l, logs := newObserved()
	res := wsclient.NewSuccessResult([]byte(`{"ok":true}`), "https://example.com", 200, nil)

	l.LogPlain("URL =>", "https://example.com")
	l.LogSuccess(res, map[string]string{}, map[string]string{}, wsclient.Payload{})

	if logs.Len() != 0 {
		t.Fatalf("expected no output, got %d entries", logs.Len())
	}
}

func TestLogSuccessDefaultCategories(t *testing.T) {
	l, logs := newObserved(WithEnabled(true))
	res := wsclient.NewSuccessResult([]byte(`{"ok":true}`), "https://example.com/a", 201, nil)

	l.LogSuccess(res,
		map[string]string{"X-Token": "abc"},
		map[string]string{"Content-Type": "application/json"},
		wsclient.Object(map[string]any{"q": "tea"}),
	)

	if got := logs.FilterMessage("URL =>").All(); len(got) != 1 || got[0].ContextMap()["url"] != "https://example.com/a" {
		t.Fatalf("url entry: %+v", got)
	}
	if got := logs.FilterMessage("Status Code =>").All(); len(got) != 1 || got[0].ContextMap()["status_code"] != int64(201) {
		t.Fatalf("status entry: %+v", got)
	}
	resp := logs.FilterMessage("Response =>").All()
	if len(resp) != 1 || !strings.Contains(resp[0].ContextMap()["response"].(string), `"ok": true`) {
		t.Fatalf("response entry: %+v", resp)
	}
	if logs.FilterMessage("Parameter =>").Len() != 1 {
		t.Fatal("expected parameter entry")
	}
	if logs.FilterMessage("Request Header =>").Len() != 1 || logs.FilterMessage("Response Header =>").Len() != 1 {
		t.Fatal("expected both header entries")
	}
}

func TestEmptyHeadersLogBlankMarker(t *testing.T) {
	l, logs := newObserved(WithEnabled(true), WithCategories(CategoryRequestHeaders))
	res := wsclient.NewSuccessResult(nil, "https://example.com", 200, nil)

	l.LogSuccess(res, map[string]string{}, nil, wsclient.Payload{})

	if logs.FilterMessage("Request Header => {} (blank value)").Len() != 1 {
		t.Fatalf("missing blank marker, got %+v", logs.All())
	}
	if logs.FilterMessage("URL =>").Len() != 0 {
		t.Fatal("url category should be off")
	}
}

func TestErrorCategoryOffByDefault(t *testing.T) {
	l, logs := newObserved(WithEnabled(true))
	res := wsclient.NewErrorResult(context.DeadlineExceeded, "https://example.com", wsclient.SentinelStatusCode, nil)

	l.LogFailure(res, map[string]string{}, nil, wsclient.Payload{})
	if logs.FilterMessage("Error =>").Len() != 0 {
		t.Fatal("error category should be off by default")
	}

	l.SetCategories(CategoryError)
	l.LogFailure(res, map[string]string{}, nil, wsclient.Payload{})
	entries := logs.FilterMessage("Error =>").All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("error entry: %+v", entries)
	}
}

func TestResponseBodyHTMLTitle(t *testing.T) {
	l, logs := newObserved(WithEnabled(true), WithCategories(CategoryResponseBody))
	body := []byte("<html><head><title> Gateway Timeout </title></head><body>oops</body></html>")
	header := http.Header{"Content-Type": []string{"text/html; charset=utf-8"}}
	res := wsclient.NewSuccessResult(body, "https://example.com", 504, header)

	l.LogSuccess(res, nil, nil, wsclient.Payload{})

	entries := logs.FilterMessage("Response =>").All()
	if len(entries) != 1 {
		t.Fatalf("expected one response entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["html_title"]; got != "Gateway Timeout" {
		t.Fatalf("html_title = %v", got)
	}
}

func TestResponseBodyTruncated(t *testing.T) {
	l, logs := newObserved(WithEnabled(true), WithCategories(CategoryResponseBody))
	res := wsclient.NewSuccessResult([]byte(strings.Repeat("x", maxBodyLogBytes*2)), "https://example.com", 200, nil)

	l.LogSuccess(res, nil, nil, wsclient.Payload{})

	got := logs.FilterMessage("Response =>").All()[0].ContextMap()["response"].(string)
	if len(got) != maxBodyLogBytes+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected truncation, len=%d", len(got))
	}
}

func TestLogPlainJoinsItems(t *testing.T) {
	l, logs := newObserved(WithEnabled(true))
	l.LogPlain("URL =>", "https://example.com", 3)

	if logs.FilterMessage("URL => https://example.com 3").Len() != 1 {
		t.Fatalf("got %+v", logs.All())
	}
}

func TestParseCategories(t *testing.T) {
	cats, err := ParseCategories(" url, status_code ,,")
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 || cats[0] != CategoryURL || cats[1] != CategoryStatusCode {
		t.Fatalf("cats = %v", cats)
	}

	all, err := ParseCategories("all")
	if err != nil || len(all) != len(AllCategories()) {
		t.Fatalf("all: %v %v", all, err)
	}

	if _, err := ParseCategories("url,bogus"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestDefaultCategoriesExcludeError(t *testing.T) {
	for _, c := range DefaultCategories() {
		if c == CategoryError {
			t.Fatal("default categories must not include error")
		}
	}
	l := New(nil)
	if l.Enabled() {
		t.Fatal("logger should start disabled")
	}
	if !l.Has(CategoryResponseHeaders) || l.Has(CategoryError) {
		t.Fatal("unexpected default category set")
	}
}

func TestFailureWithoutResponseSkipsResponseHeaders(t *testing.T) {
	l, logs := newObserved(WithEnabled(true), WithCategories(CategoryResponseHeaders, CategoryError))
	res := wsclient.NewErrorResult(errors.New("dial refused"), "https://example.com", wsclient.SentinelStatusCode, nil)

	l.LogFailure(res, map[string]string{}, nil, wsclient.Payload{})

	if logs.FilterMessage("Response Header =>").Len() != 0 {
		t.Fatal("no response headers expected")
	}
	if logs.FilterMessage("Error =>").Len() != 1 {
		t.Fatal("expected error entry")
	}
}
