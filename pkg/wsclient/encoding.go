package wsclient

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// EncodingKind discriminates the Encoding variants.
type EncodingKind int

const (
	EncodingURL EncodingKind = iota
	EncodingJSON
)

// JSONWriting tunes JSON body serialization. The zero value writes compact JSON.
type JSONWriting uint8

const (
	JSONPrettyPrinted JSONWriting = 1 << iota
	JSONNoHTMLEscape
)

// Destination selects where URL-encoded parameters go.
type Destination int

const (
	// MethodDependent uses the query string for GET, HEAD and DELETE and the body otherwise.
	MethodDependent Destination = iota
	QueryString
	HTTPBody
)

// ArrayEncoding selects how array values are keyed.
type ArrayEncoding int

const (
	Brackets        ArrayEncoding = iota // key[]=v
	NoBrackets                           // key=v
	IndexInBrackets                      // key[0]=v
)

func (a ArrayEncoding) key(key string, i int) string {
	switch a {
	case NoBrackets:
		return key
	case IndexInBrackets:
		return key + "[" + strconv.Itoa(i) + "]"
	default:
		return key + "[]"
	}
}

// BoolEncoding selects how booleans are written.
type BoolEncoding int

const (
	Numeric BoolEncoding = iota // 1 / 0
	Literal                     // true / false
)

func (b BoolEncoding) encode(v bool) string {
	switch {
	case b == Literal && v:
		return "true"
	case b == Literal:
		return "false"
	case v:
		return "1"
	default:
		return "0"
	}
}

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded; charset=utf-8"
)

// Encoding describes how a Payload is applied to a request. The zero value is
// URL encoding with method-dependent placement.
type Encoding struct {
	kind        EncodingKind
	writing     JSONWriting
	destination Destination
	arrays      ArrayEncoding
	bools       BoolEncoding
}

// DefaultEncoding is URL encoding with method-dependent placement.
func DefaultEncoding() Encoding { return Encoding{} }

// JSONEncoding serializes the object payload as the JSON body.
func JSONEncoding(w JSONWriting) Encoding {
	return Encoding{kind: EncodingJSON, writing: w}
}

// URLEncoding places the object payload per dest with default array and bool styles.
func URLEncoding(dest Destination) Encoding {
	return Encoding{kind: EncodingURL, destination: dest}
}

// URLEncodingCustom places the object payload with explicit array and bool styles.
func URLEncodingCustom(dest Destination, arrays ArrayEncoding, bools BoolEncoding) Encoding {
	return Encoding{kind: EncodingURL, destination: dest, arrays: arrays, bools: bools}
}

func (e Encoding) Kind() EncodingKind           { return e.kind }
func (e Encoding) Writing() JSONWriting         { return e.writing }
func (e Encoding) Destination() Destination     { return e.destination }
func (e Encoding) ArrayEncoding() ArrayEncoding { return e.arrays }
func (e Encoding) BoolEncoding() BoolEncoding   { return e.bools }

// apply writes p into the request parts. It may extend u's query and set a
// Content-Type in header when none is present. The returned body is nil when
// nothing goes into the body.
func (e Encoding) apply(method Method, u *url.URL, header http.Header, p Payload) ([]byte, error) {
	switch p.Kind() {
	case PayloadNone:
		return nil, nil
	case PayloadObjects:
		objs, _ := p.AsObjects()
		body, err := marshalJSON(objs, JSONPrettyPrinted)
		if err != nil {
			return nil, &EncodingError{Err: err}
		}
		setDefaultContentType(header, contentTypeJSON)
		return body, nil
	case PayloadRaw:
		raw, _ := p.AsRaw()
		return []byte(raw), nil
	case PayloadObject:
		obj, _ := p.AsObject()
		if obj == nil {
			return nil, nil
		}
		return e.applyObject(method, u, header, obj)
	default:
		return nil, nil
	}
}

func (e Encoding) applyObject(method Method, u *url.URL, header http.Header, obj map[string]any) ([]byte, error) {
	switch e.kind {
	case EncodingJSON:
		body, err := marshalJSON(obj, e.writing)
		if err != nil {
			return nil, &EncodingError{Err: err}
		}
		setDefaultContentType(header, contentTypeJSON)
		return body, nil
	case EncodingURL:
		inQuery := e.destination == QueryString ||
			(e.destination == MethodDependent && method.queryPlacement())
		q := queryString(obj, e.arrays, e.bools)
		if inQuery {
			if len(obj) > 0 {
				if u.RawQuery != "" {
					u.RawQuery += "&" + q
				} else {
					u.RawQuery = q
				}
			}
			return nil, nil
		}
		setDefaultContentType(header, contentTypeForm)
		return []byte(q), nil
	default:
		return nil, nil
	}
}

func marshalJSON(v any, w JSONWriting) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(w&JSONNoHTMLEscape == 0)
	if w&JSONPrettyPrinted != 0 {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func setDefaultContentType(header http.Header, ct string) {
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", ct)
	}
}
