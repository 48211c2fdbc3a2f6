package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/samvad-hq/samvad-wsclient/internal/config"
	"github.com/samvad-hq/samvad-wsclient/internal/domain"
	"github.com/samvad-hq/samvad-wsclient/internal/history"
	"github.com/samvad-hq/samvad-wsclient/internal/logger"
	"github.com/samvad-hq/samvad-wsclient/pkg/apilog"
	"github.com/samvad-hq/samvad-wsclient/pkg/catalog"
	"github.com/samvad-hq/samvad-wsclient/pkg/httpclient"
	"github.com/samvad-hq/samvad-wsclient/pkg/sinks"
	"github.com/samvad-hq/samvad-wsclient/pkg/wsclient"
)

// Runner replays the request catalog. Each pass awaits every enabled entry in
// file order, journals the outcome and forwards it to the configured sinks.
type Runner struct {
	cfg      *config.Config
	jobs     []job
	exec     *wsclient.SerialExecutor
	apiLog   *apilog.Logger
	fanout   *sinks.Fanout
	store    history.Store
	log      logger.Logger
	interval time.Duration
	newID    func() string
	now      func() time.Time

	closeOnce sync.Once
}

type job struct {
	entry   catalog.Entry
	method  wsclient.Method
	payload wsclient.Payload
	client  *wsclient.Client
}

// Option customizes a Runner.
type Option func(*runnerOptions)

type runnerOptions struct {
	transport httpclient.Client
	zap       *zap.Logger
	newID     func() string
}

// WithTransport replaces the resty transport shared by every client.
func WithTransport(t httpclient.Client) Option {
	return func(o *runnerOptions) { o.transport = t }
}

// WithZap sets the zap logger behind the API logger and the transport.
func WithZap(z *zap.Logger) Option {
	return func(o *runnerOptions) { o.zap = z }
}

// WithIDGenerator replaces uuid-based call IDs.
func WithIDGenerator(fn func() string) Option {
	return func(o *runnerOptions) { o.newID = fn }
}

// NewRunner builds a runner from config files.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	o := runnerOptions{newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	if o.zap == nil {
		o.zap = zap.NewNop()
	}
	if o.transport == nil {
		o.transport = httpclient.NewRestyClient(0, o.zap.Sugar())
	}

	cat, err := catalog.Load(cfg.RequestsFile)
	if err != nil {
		return nil, fmt.Errorf("load requests catalog: %w", err)
	}
	entries := cat.Enabled()
	if len(entries) == 0 {
		return nil, fmt.Errorf("no enabled requests in %s", cfg.RequestsFile)
	}

	apiOpts := []apilog.Option{apilog.WithEnabled(cfg.APILogEnabled)}
	if strings.TrimSpace(cfg.APILogCategories) != "" {
		cats, err := apilog.ParseCategories(cfg.APILogCategories)
		if err != nil {
			return nil, fmt.Errorf("api log categories: %w", err)
		}
		apiOpts = append(apiOpts, apilog.WithCategories(cats...))
	}
	apiLog := apilog.New(o.zap, apiOpts...)

	exec := wsclient.NewSerialExecutor()
	jobs := make([]job, 0, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		// Validated at load.
		method, _ := e.Method()
		enc, _ := e.Encoding()
		payload, _ := e.Payload()
		jobs = append(jobs, job{
			entry:   e,
			method:  method,
			payload: payload,
			client: wsclient.New(e.URL, method,
				wsclient.WithEncoding(enc),
				wsclient.WithTimeout(e.Timeout(cfg.RequestTimeout)),
				wsclient.WithTransport(o.transport),
				wsclient.WithLogger(apiLog),
				wsclient.WithExecutor(exec),
			),
		})
		ids = append(ids, e.ID)
	}
	log.InfoObj("requests catalog loaded", "requests_meta", map[string]any{
		"count": len(ids),
		"ids":   ids,
	})

	fanout, err := buildFanout(ctx, cfg, log, wsclient.WithTransport(o.transport), wsclient.WithLogger(apiLog))
	if err != nil {
		exec.Close()
		return nil, err
	}

	store, err := history.NewStore(cfg.HistoryType, cfg.HistoryPath, history.Options{
		TTL:             cfg.HistoryTTL,
		CleanupInterval: cfg.HistoryCleanupInterval,
	})
	if err != nil {
		exec.Close()
		_ = fanout.Close()
		return nil, fmt.Errorf("init history: %w", err)
	}
	log.InfoObj("history initialized", "history_config", map[string]any{
		"type":                     cfg.HistoryType,
		"path":                     cfg.HistoryPath,
		"ttl_seconds":              int(cfg.HistoryTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.HistoryCleanupInterval.Seconds()),
	})

	return &Runner{
		cfg:      cfg,
		jobs:     jobs,
		exec:     exec,
		apiLog:   apiLog,
		fanout:   fanout,
		store:    store,
		log:      log,
		interval: cfg.RunInterval,
		newID:    o.newID,
		now:      time.Now,
	}, nil
}

// buildFanout returns an empty fanout when no sinks file is configured.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger, httpOpts ...wsclient.Option) (*sinks.Fanout, error) {
	if strings.TrimSpace(cfg.SinksFile) == "" {
		return sinks.NewFanout(nil), nil
	}
	reg, err := sinks.LoadRegistry(cfg.SinksFile)
	if err != nil {
		return nil, fmt.Errorf("load sinks registry: %w", err)
	}
	enabled := reg.Enabled()
	built, err := sinks.BuildAll(ctx, sinks.DefaultRegistry(httpOpts...), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, s := range enabled {
		summaries = append(summaries, map[string]string{"id": s.ID, "type": s.Type})
	}
	log.InfoObj("sinks registry loaded", "sinks_meta", map[string]any{
		"count": len(summaries),
		"sinks": summaries,
	})
	return sinks.NewFanout(built), nil
}

// Run performs a pass and, when run_interval is set, repeats until ctx is done.
// Resources are released on return.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || len(r.jobs) == 0 {
		return fmt.Errorf("runner is not initialized")
	}
	defer r.Close()

	r.log.InfoObj("runner starting", "runner_state", map[string]any{
		"requests_count": len(r.jobs),
		"sinks_count":    r.fanout.Size(),
		"run_interval":   r.interval.String(),
	})

	_, err := r.RunOnce(ctx)
	if r.interval <= 0 {
		return err
	}
	if err != nil {
		r.log.ErrorObj("initial pass failed", "error", err.Error())
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("runner loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.log.ErrorObj("scheduled pass failed", "error", err.Error())
			}
		}
	}
}

// RunOnce sends every enabled request once, in order. Call failures are
// outcomes; the returned error aggregates journal and sink failures.
func (r *Runner) RunOnce(ctx context.Context) ([]domain.Outcome, error) {
	start := r.now()
	r.log.InfoObj("pass started", "pass_meta", map[string]any{
		"requests_count": len(r.jobs),
		"started_at":     start.UTC(),
	})

	var (
		outcomes []domain.Outcome
		errs     []error
	)
	for _, j := range r.jobs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		o, err := r.call(ctx, j)
		if err != nil {
			errs = append(errs, fmt.Errorf("request %s: %w", j.entry.ID, err))
			continue
		}
		outcomes = append(outcomes, o)

		if err := r.store.Record(o); err != nil {
			r.log.ErrorObj("history record failed", "error", err.Error())
			errs = append(errs, fmt.Errorf("record %s: %w", o.CallID, err))
		}
		if _, err := r.fanout.Send(ctx, sinks.NewEvent(r.cfg.AppName, o)); err != nil {
			r.log.WarnObj("outcome forwarding failed", "error", err.Error())
			errs = append(errs, err)
		}
	}

	r.log.InfoObj("pass completed", "pass_meta", map[string]any{
		"requests_count": len(r.jobs),
		"outcomes":       len(outcomes),
		"elapsed_ms":     r.now().Sub(start).Milliseconds(),
	})
	return outcomes, errors.Join(errs...)
}

func (r *Runner) call(ctx context.Context, j job) (domain.Outcome, error) {
	callID := r.newID()
	started := r.now()
	res, err := wsclient.Await(ctx, j.client, j.entry.Headers, j.payload)
	if err != nil {
		return domain.Outcome{}, err
	}
	o := domain.NewOutcome(callID, j.entry.ID, j.method, res, started, r.now())
	if o.Success {
		r.log.InfoObj("request completed", "outcome", o)
	} else {
		r.log.WarnObj("request failed", "outcome", o)
	}
	return o, nil
}

// APILogger exposes the request logger so callers can toggle it at runtime.
func (r *Runner) APILogger() *apilog.Logger { return r.apiLog }

// History exposes the outcome journal.
func (r *Runner) History() history.Store { return r.store }

// Close stops the callback executor and releases sinks and history. Safe to call twice.
func (r *Runner) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		r.exec.Close()
		if err := r.fanout.Close(); err != nil {
			r.log.ErrorObj("sinks close failed", "error", err.Error())
		}
		if err := r.store.Close(); err != nil {
			r.log.ErrorObj("history close failed", "error", err.Error())
		}
	})
}
