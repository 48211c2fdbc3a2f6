package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-wsclient/pkg/wsclient"
)

// httpSink posts events as JSON through a wsclient.Client. The client allows
// one call at a time, so sends are serialized.
type httpSink struct {
	id      string
	typ     string
	headers map[string]string
	log     Logger

	mu     sync.Mutex
	client *wsclient.Client
	exec   *wsclient.SerialExecutor
}

func newHTTPSink(_ context.Context, cfg SinkConfig, log Logger, opts ...wsclient.Option) (Sink, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("sink %q missing http configuration", cfg.ID)
	}
	method, err := wsclient.ParseMethod(cfg.HTTP.Method)
	if err != nil {
		return nil, fmt.Errorf("sink %q: %w", cfg.ID, err)
	}

	exec := wsclient.NewSerialExecutor()
	all := append([]wsclient.Option{
		wsclient.WithEncoding(wsclient.JSONEncoding(0)),
		wsclient.WithTimeout(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second),
		wsclient.WithExecutor(exec),
	}, opts...)

	return &httpSink{
		id:      cfg.ID,
		typ:     TypeHTTP,
		headers: cfg.HTTP.Headers,
		log:     ensureLogger(log),
		client:  wsclient.New(cfg.HTTP.URL, method, all...),
		exec:    exec,
	}, nil
}

func (h *httpSink) ID() string   { return h.id }
func (h *httpSink) Type() string { return h.typ }

func (h *httpSink) Send(ctx context.Context, evt Event) error {
	body, err := toObject(evt)
	if err != nil {
		return err
	}

	h.mu.Lock()
	res, err := wsclient.Await(ctx, h.client, h.headers, wsclient.Object(body))
	h.mu.Unlock()
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}

	if f, ok := res.Failure(); ok {
		return fmt.Errorf("http request: %w", f)
	}
	s, _ := res.Success()
	if s.StatusCode < 200 || s.StatusCode > 299 {
		return fmt.Errorf("http response status %d: %s", s.StatusCode, bodySnippet(s.AnyResponseString))
	}
	h.log.DebugObj("http sink delivered event", "sink_http_delivery", map[string]any{
		"sink_id": h.id,
		"status":  s.StatusCode,
	})
	return nil
}

func (h *httpSink) Close() error {
	h.exec.Close()
	return nil
}

// toObject round-trips evt through JSON so it can travel as an object payload.
func toObject(evt Event) (map[string]any, error) {
	raw, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return obj, nil
}

func bodySnippet(body string) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(body)
}
