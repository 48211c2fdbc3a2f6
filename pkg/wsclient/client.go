package wsclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/samvad-wsclient/pkg/httpclient"
)

// DefaultTimeout applies when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Config is the immutable request configuration of a Client.
type Config struct {
	URL      string
	Method   Method
	Encoding Encoding
	Timeout  time.Duration
	BaseURL  string
}

// Option configures a Client.
type Option func(*Client)

// WithEncoding sets how payloads are applied. Default: DefaultEncoding().
func WithEncoding(e Encoding) Option {
	return func(c *Client) { c.cfg.Encoding = e }
}

// WithTimeout sets the per-call timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.cfg.Timeout = d
		}
	}
}

// WithBaseURL sets the URL relative request URLs resolve against.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.cfg.BaseURL = strings.TrimSpace(base) }
}

// WithTransport replaces the default resty-backed transport.
func WithTransport(t httpclient.Client) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithLogger sets the request logger. Default: no logging.
func WithLogger(l Logger) Option {
	return func(c *Client) { c.log = ensureLogger(l) }
}

// WithExecutor sets the callback context. Default: MainExecutor().
func WithExecutor(e Executor) Option {
	return func(c *Client) {
		if e != nil {
			c.exec = e
		}
	}
}

var defaultTransport = sync.OnceValue(func() httpclient.Client {
	return httpclient.NewRestyClient(0, nil)
})

// Client issues at most one call at a time against a fixed URL and method.
// Completions run on the configured Executor.
type Client struct {
	cfg       Config
	base      *url.URL
	transport httpclient.Client
	log       Logger
	exec      Executor

	mu         sync.Mutex
	requesting bool
	current    *call
}

// call is the handle of the in-flight request.
type call struct {
	cancel   context.CancelFunc
	finished atomic.Bool
}

// New builds a Client for rawURL and method.
func New(rawURL string, method Method, opts ...Option) *Client {
	c := &Client{
		cfg: Config{
			URL:      rawURL,
			Method:   method,
			Encoding: DefaultEncoding(),
			Timeout:  DefaultTimeout,
		},
		log: noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = defaultTransport()
	}
	if c.exec == nil {
		c.exec = MainExecutor()
	}
	if c.cfg.BaseURL != "" {
		if base, err := url.Parse(c.cfg.BaseURL); err == nil && base.IsAbs() {
			c.base = base
		}
	}
	return c
}

// Config returns the client's request configuration.
func (c *Client) Config() Config { return c.cfg }

// IsRequesting reports whether a call is in flight.
func (c *Client) IsRequesting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requesting
}

// Send dispatches one call with optional headers and payload and reports
// whether it was dispatched. While a call is in flight Send does nothing and
// returns false. A URL that cannot be resolved is reported to done on the
// calling goroutine before Send returns false; every other outcome reaches
// done exactly once on the client's Executor.
func (c *Client) Send(ctx context.Context, headers map[string]string, payload Payload, done Callback) bool {
	return c.send(ctx, headers, payload, done, nil)
}

func (c *Client) send(ctx context.Context, headers map[string]string, payload Payload, done Callback, after func()) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	if done == nil {
		done = func(Result) {}
	}

	c.mu.Lock()
	if c.requesting {
		c.mu.Unlock()
		return false
	}
	u, err := resolveURL(c.cfg.URL, c.base)
	if err != nil {
		c.mu.Unlock()
		done(NewFailure(&ErrorResult{Err: err, URL: c.cfg.URL, StatusCode: SentinelStatusCode}))
		return false
	}
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	cl := &call{cancel: cancel}
	c.requesting = true
	c.current = cl
	c.mu.Unlock()

	c.log.LogPlain("URL =>", u.String())

	header := make(http.Header, len(headers))
	for k, v := range headers {
		header.Set(k, v)
	}
	body, encErr := c.cfg.Encoding.apply(c.cfg.Method, u, header, payload)
	target := u.String()
	requestHeaders := flattenHeader(header)

	go func() {
		var (
			resp httpclient.Response
			err  error
		)
		if encErr != nil {
			err = encErr
		} else {
			resp, err = c.transport.Do(callCtx, httpclient.Request{
				Method: c.cfg.Method.String(),
				URL:    target,
				Header: header,
				Body:   body,
			})
		}
		cl.finished.Store(true)
		cancel()

		c.exec.Post(func() {
			c.complete(cl, target, resp, err, requestHeaders, payload, done, after)
		})
	}()
	return true
}

// complete runs on the executor: build, log, deliver, then clear state.
func (c *Client) complete(cl *call, target string, resp httpclient.Response, err error, requestHeaders map[string]string, payload Payload, done Callback, after func()) {
	defer func() {
		c.mu.Lock()
		if c.current == cl {
			c.requesting = false
			c.current = nil
		}
		c.mu.Unlock()
		if after != nil {
			after()
		}
	}()

	finalURL := target
	status := SentinelStatusCode
	var (
		header          http.Header
		responseHeaders map[string]string
	)
	if resp != nil {
		header = resp.Header()
		responseHeaders = flattenHeader(header)
		status = resp.StatusCode()
		if u := resp.URL(); u != "" {
			finalURL = u
		}
	}

	if err == nil && resp != nil {
		res := NewSuccessResult(resp.Body(), finalURL, status, header)
		c.log.LogSuccess(res, requestHeaders, responseHeaders, payload)
		done(NewSuccess(res))
		return
	}

	res := NewErrorResult(err, finalURL, status, header)
	c.log.LogFailure(res, requestHeaders, responseHeaders, payload)
	done(NewFailure(res))
}

// Cancel asks the in-flight call to abort. The completion still arrives
// through the callback; state clears only then.
func (c *Client) Cancel() {
	c.mu.Lock()
	cl := c.current
	c.mu.Unlock()

	if cl == nil || cl.finished.Load() {
		c.log.LogPlain("current request is already finished.")
		return
	}
	cl.cancel()
}

// Await sends and blocks until the call completes and the client is idle again.
// It returns ErrRequestInFlight when the client is busy, or ctx.Err() if ctx
// ends before the completion is delivered.
func Await(ctx context.Context, c *Client, headers map[string]string, payload Payload) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make(chan Result, 1)
	idle := make(chan struct{})

	sent := c.send(ctx, headers, payload, func(r Result) {
		results <- r
	}, func() {
		close(idle)
	})
	if !sent {
		select {
		case r := <-results:
			return r, nil
		default:
			return Result{}, ErrRequestInFlight
		}
	}

	select {
	case <-idle:
		return <-results, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vals := range h {
		out[k] = strings.Join(vals, ", ")
	}
	return out
}
