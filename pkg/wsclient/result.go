package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// SuccessResult is a completed call that received a response body.
type SuccessResult struct {
	// Data is the raw response body.
	Data []byte
	// Value is the decoded JSON value, or AnyResponseString when decoding failed.
	Value any
	// Dictionary is set when the body decodes to a JSON object.
	Dictionary map[string]any
	// DictionaryArray is set when the body decodes to an array of JSON objects.
	DictionaryArray []map[string]any
	// AnyResponseString is Data decoded as UTF-8, invalid sequences replaced.
	AnyResponseString string
	// ErrorJSONSerialization holds the JSON decode error, if any.
	ErrorJSONSerialization string
	URL                    string
	StatusCode             int
	Header                 http.Header
}

// NewSuccessResult decodes data best-effort into a SuccessResult.
func NewSuccessResult(data []byte, url string, statusCode int, header http.Header) *SuccessResult {
	r := &SuccessResult{
		Data:              data,
		URL:               url,
		StatusCode:        statusCode,
		Header:            header,
		AnyResponseString: strings.ToValidUTF8(string(data), "\uFFFD"),
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		r.ErrorJSONSerialization = err.Error()
		r.Value = r.AnyResponseString
		return r
	}
	r.Value = v

	switch val := v.(type) {
	case map[string]any:
		r.Dictionary = val
	case []any:
		r.DictionaryArray = objectsOf(val)
	}
	return r
}

// objectsOf returns items as objects, or nil when any item is not an object.
func objectsOf(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			return nil
		}
		out = append(out, obj)
	}
	return out
}

// ErrorResult is a completed call that produced no response body.
type ErrorResult struct {
	// Err is the normalized cause.
	Err error
	// URL is the final URL if a response arrived, else the URL attempted.
	URL string
	// StatusCode is SentinelStatusCode when no response was received.
	StatusCode int
	Header     http.Header
}

// NewErrorResult normalizes err and builds an ErrorResult.
func NewErrorResult(err error, url string, statusCode int, header http.Header) *ErrorResult {
	return &ErrorResult{
		Err:        normalizeError(err),
		URL:        url,
		StatusCode: statusCode,
		Header:     header,
	}
}

func (e *ErrorResult) Error() string {
	return fmt.Sprintf("request %s failed (status %d): %v", e.URL, e.StatusCode, e.Err)
}

func (e *ErrorResult) Unwrap() error { return e.Err }

// Timeout reports whether the call failed on a deadline.
func (e *ErrorResult) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(e.Err, &nerr) && nerr.Timeout()
}

// Canceled reports whether the call was cancelled.
func (e *ErrorResult) Canceled() bool {
	return errors.Is(e.Err, context.Canceled)
}

// Result holds exactly one of a SuccessResult or an ErrorResult.
type Result struct {
	success *SuccessResult
	failure *ErrorResult
}

// Callback receives the single completion of a call.
type Callback func(Result)

func NewSuccess(s *SuccessResult) Result { return Result{success: s} }
func NewFailure(f *ErrorResult) Result   { return Result{failure: f} }

func (r Result) Success() (*SuccessResult, bool) { return r.success, r.success != nil }
func (r Result) Failure() (*ErrorResult, bool)   { return r.failure, r.failure != nil }

// URL returns the URL carried by whichever side is set.
func (r Result) URL() string {
	switch {
	case r.success != nil:
		return r.success.URL
	case r.failure != nil:
		return r.failure.URL
	default:
		return ""
	}
}

// StatusCode returns the status carried by whichever side is set.
func (r Result) StatusCode() int {
	switch {
	case r.success != nil:
		return r.success.StatusCode
	case r.failure != nil:
		return r.failure.StatusCode
	default:
		return SentinelStatusCode
	}
}
