// Package apilog prints request and response details for wsclient calls.
// Output is gated by an enable flag and a set of categories; it never
// affects the outcome of a call.
package apilog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/samvad-hq/samvad-wsclient/pkg/wsclient"
)

const maxBodyLogBytes = 4 << 10

var _ wsclient.Logger = (*Logger)(nil)

// Logger is a wsclient.Logger writing to zap. Disabled until enabled.
type Logger struct {
	log     *zap.Logger
	enabled atomic.Bool

	mu         sync.RWMutex
	categories map[Category]bool
}

// Option configures a Logger.
type Option func(*Logger)

// WithEnabled sets the initial enable flag.
func WithEnabled(on bool) Option {
	return func(l *Logger) { l.enabled.Store(on) }
}

// WithCategories replaces the category set.
func WithCategories(cats ...Category) Option {
	return func(l *Logger) { l.categories = categorySet(cats) }
}

// New builds a Logger on log (zap.NewNop when nil) with DefaultCategories.
func New(log *zap.Logger, opts ...Option) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Logger{
		log:        log.Named("api"),
		categories: categorySet(DefaultCategories()),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func categorySet(cats []Category) map[Category]bool {
	set := make(map[Category]bool, len(cats))
	for _, c := range cats {
		set[c] = true
	}
	return set
}

func (l *Logger) SetEnabled(on bool) { l.enabled.Store(on) }
func (l *Logger) Enabled() bool      { return l.enabled.Load() }

// SetCategories replaces the category set.
func (l *Logger) SetCategories(cats ...Category) {
	set := categorySet(cats)
	l.mu.Lock()
	l.categories = set
	l.mu.Unlock()
}

// Has reports whether c is selected.
func (l *Logger) Has(c Category) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.categories[c]
}

// LogPlain writes items as one line.
func (l *Logger) LogPlain(items ...any) {
	if !l.Enabled() {
		return
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%+v", it))
	}
	l.log.Info(strings.Join(parts, " "))
}

// LogSuccess writes the selected details of a completed call.
func (l *Logger) LogSuccess(res *wsclient.SuccessResult, requestHeaders, responseHeaders map[string]string, payload wsclient.Payload) {
	if !l.Enabled() || res == nil {
		return
	}
	if l.Has(CategoryURL) {
		l.log.Info("URL =>", zap.String("url", res.URL))
	}
	if l.Has(CategoryRequestHeaders) {
		l.logPayload(payload)
		l.logHeader("Request", requestHeaders)
	}
	if l.Has(CategoryStatusCode) {
		l.log.Info("Status Code =>", zap.Int("status_code", res.StatusCode))
	}
	if l.Has(CategoryResponseBody) {
		fields := []zap.Field{zap.String("response", responseText(res))}
		if title := htmlTitle(res); title != "" {
			fields = append(fields, zap.String("html_title", title))
		}
		l.log.Info("Response =>", fields...)
	}
	if l.Has(CategoryResponseHeaders) {
		l.logHeader("Response", responseHeaders)
	}
}

// LogFailure writes the selected details of a failed call.
func (l *Logger) LogFailure(res *wsclient.ErrorResult, requestHeaders, responseHeaders map[string]string, payload wsclient.Payload) {
	if !l.Enabled() || res == nil {
		return
	}
	if l.Has(CategoryURL) {
		l.log.Info("URL =>", zap.String("url", res.URL))
	}
	if l.Has(CategoryRequestHeaders) {
		l.logPayload(payload)
		l.logHeader("Request", requestHeaders)
	}
	if l.Has(CategoryStatusCode) {
		l.log.Info("Status Code =>", zap.Int("status_code", res.StatusCode))
	}
	if l.Has(CategoryError) {
		l.log.Warn("Error =>", zap.Error(res.Err))
	}
	if l.Has(CategoryResponseHeaders) {
		l.logHeader("Response", responseHeaders)
	}
}

func (l *Logger) logPayload(p wsclient.Payload) {
	switch p.Kind() {
	case wsclient.PayloadObject:
		obj, _ := p.AsObject()
		l.log.Info("Parameter =>", zap.String("parameter", prettyOrPlain(obj)))
	case wsclient.PayloadObjects:
		objs, _ := p.AsObjects()
		l.log.Info("Parameter =>", zap.String("parameter", prettyOrPlain(objs)))
	case wsclient.PayloadRaw:
		raw, _ := p.AsRaw()
		l.log.Info("Parameter =>", zap.String("parameter", raw))
	case wsclient.PayloadNone:
	}
}

// logHeader skips nil maps; an empty map means the call had no headers.
func (l *Logger) logHeader(prefix string, h map[string]string) {
	if h == nil {
		return
	}
	if len(h) == 0 {
		l.log.Info(prefix + " Header => {} (blank value)")
		return
	}
	l.log.Info(prefix+" Header =>", zap.String("header", prettyOrPlain(h)))
}

func prettyOrPlain(v any) string {
	if b, err := json.MarshalIndent(v, "", "  "); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%+v", v)
}

func responseText(res *wsclient.SuccessResult) string {
	if res.Dictionary != nil {
		return prettyOrPlain(res.Dictionary)
	}
	if res.DictionaryArray != nil {
		return prettyOrPlain(res.DictionaryArray)
	}
	text := res.AnyResponseString
	if len(text) > maxBodyLogBytes {
		text = strings.ToValidUTF8(text[:maxBodyLogBytes], "") + "..."
	}
	return text
}

// htmlTitle returns the <title> of an HTML body that did not decode as JSON.
func htmlTitle(res *wsclient.SuccessResult) string {
	if res.ErrorJSONSerialization == "" || len(res.Data) == 0 {
		return ""
	}
	ct := strings.ToLower(res.Header.Get("Content-Type"))
	looksHTML := strings.Contains(ct, "text/html") ||
		bytes.HasPrefix(bytes.TrimSpace(res.Data), []byte("<"))
	if !looksHTML {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Data))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
