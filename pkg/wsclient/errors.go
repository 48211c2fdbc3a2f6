package wsclient

import (
	"errors"
	"fmt"
	"net/url"
)

// SentinelStatusCode marks results for which no HTTP response was received.
const SentinelStatusCode = -51515

const genericErrorMessage = "something went wrong"

var (
	// ErrMalformedURL matches failures to parse the configured URL, even after percent-encoding.
	ErrMalformedURL = errors.New("wsclient: malformed url")
	// ErrParameterEncoding matches payloads that could not be serialized.
	ErrParameterEncoding = errors.New("wsclient: parameter encoding failed")
	// ErrRequestInFlight is returned by Await when the client already has a call in flight.
	ErrRequestInFlight = errors.New("wsclient: request already in flight")
)

// MalformedURLError reports a URL string that could not be resolved.
type MalformedURLError struct {
	URL string
	Err error
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
}

func (e *MalformedURLError) Unwrap() error { return e.Err }

func (e *MalformedURLError) Is(target error) bool { return target == ErrMalformedURL }

// EncodingError reports a payload that could not be serialized.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode parameters: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func (e *EncodingError) Is(target error) bool { return target == ErrParameterEncoding }

// GenericError stands in when a call failed without a usable cause.
type GenericError struct {
	Message string
	Code    int
}

func (e *GenericError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// normalizeError reduces a transport error to its root cause.
func normalizeError(err error) error {
	if err == nil {
		return &GenericError{Message: genericErrorMessage, Code: SentinelStatusCode}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err
	}
	return err
}
