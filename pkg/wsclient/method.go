package wsclient

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP verb accepted by the client.
type Method string

const (
	MethodConnect Method = http.MethodConnect
	MethodDelete  Method = http.MethodDelete
	MethodGet     Method = http.MethodGet
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
	MethodPatch   Method = http.MethodPatch
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodTrace   Method = http.MethodTrace
)

var knownMethods = []Method{
	MethodConnect, MethodDelete, MethodGet, MethodHead, MethodOptions,
	MethodPatch, MethodPost, MethodPut, MethodTrace,
}

// ParseMethod maps a case-insensitive verb to a Method.
func ParseMethod(s string) (Method, error) {
	up := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, m := range knownMethods {
		if m == up {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported http method %q", s)
}

func (m Method) String() string { return string(m) }

// queryPlacement reports whether method-dependent URL encoding puts
// parameters in the query string for m.
func (m Method) queryPlacement() bool {
	switch m {
	case MethodGet, MethodHead, MethodDelete:
		return true
	default:
		return false
	}
}
