// Package catalog loads request definitions (YAML/JSON) for the runner.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/samvad-wsclient/pkg/wsclient"
)

// Entry is one request definition.
type Entry struct {
	ID             string            `json:"id" yaml:"id"`
	URL            string            `json:"url" yaml:"url"`
	HTTPMethod     string            `json:"method" yaml:"method"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	EncodingSpec   EncodingSpec      `json:"encoding" yaml:"encoding"`
	PayloadSpec    PayloadSpec       `json:"payload" yaml:"payload"`
	EnabledFlag    *bool             `json:"enabled" yaml:"enabled"`
}

// EncodingSpec describes a wsclient.Encoding.
type EncodingSpec struct {
	Type          string `json:"type" yaml:"type"`
	Destination   string `json:"destination" yaml:"destination"`
	ArrayEncoding string `json:"array_encoding" yaml:"array_encoding"`
	BoolEncoding  string `json:"bool_encoding" yaml:"bool_encoding"`
	Pretty        bool   `json:"pretty" yaml:"pretty"`
	NoHTMLEscape  bool   `json:"no_html_escape" yaml:"no_html_escape"`
}

// PayloadSpec holds at most one of its fields.
type PayloadSpec struct {
	Object  map[string]any   `json:"object" yaml:"object"`
	Objects []map[string]any `json:"objects" yaml:"objects"`
	Raw     *string          `json:"raw" yaml:"raw"`
}

type document struct {
	Requests []Entry `json:"requests" yaml:"requests"`
}

// Catalog is a validated, ordered set of entries.
type Catalog struct {
	entries []Entry
	idx     map[string]int
}

// Load reads and validates the catalog at path.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("requests file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open requests file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read requests file: %w", err)
	}
	return Parse(raw, filepath.Ext(path))
}

// Parse decodes data as YAML or JSON; ext narrows the format when set.
func Parse(data []byte, ext string) (*Catalog, error) {
	doc, err := parseDocument(data, ext)
	if err != nil {
		return nil, err
	}
	if len(doc.Requests) == 0 {
		return nil, errors.New("requests file contains no requests entries")
	}

	c := &Catalog{idx: make(map[string]int, len(doc.Requests))}
	for i := range doc.Requests {
		e := sanitizeEntry(doc.Requests[i])
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("request[%d]: %w", i, err)
		}
		if _, exists := c.idx[e.ID]; exists {
			return nil, fmt.Errorf("duplicate request id %q", e.ID)
		}
		c.idx[e.ID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

type unmarshalFn func([]byte, any) error

func parseDocument(data []byte, ext string) (document, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var doc document
		if err := d.fn(data, &doc); err != nil {
			errs = append(errs, fmt.Errorf("decode %s requests: %w", d.name, err))
			continue
		}
		return doc, nil
	}
	if len(errs) == 0 {
		return document{}, fmt.Errorf("unsupported requests file extension %q", ext)
	}
	return document{}, errors.Join(append([]error{errors.New("requests file format not recognized (expected YAML or JSON)")}, errs...)...)
}

func sanitizeEntry(e Entry) Entry {
	e.ID = strings.TrimSpace(e.ID)
	e.URL = strings.TrimSpace(e.URL)
	e.HTTPMethod = strings.TrimSpace(e.HTTPMethod)
	if e.HTTPMethod == "" {
		e.HTTPMethod = string(wsclient.MethodGet)
	}
	if e.Headers == nil {
		e.Headers = map[string]string{}
	}
	e.EncodingSpec.Type = strings.ToLower(strings.TrimSpace(e.EncodingSpec.Type))
	e.EncodingSpec.Destination = strings.ToLower(strings.TrimSpace(e.EncodingSpec.Destination))
	e.EncodingSpec.ArrayEncoding = strings.ToLower(strings.TrimSpace(e.EncodingSpec.ArrayEncoding))
	e.EncodingSpec.BoolEncoding = strings.ToLower(strings.TrimSpace(e.EncodingSpec.BoolEncoding))
	return e
}

func validateEntry(e Entry) error {
	if e.ID == "" {
		return errors.New("id is required")
	}
	if e.URL == "" {
		return fmt.Errorf("url is required for request %q", e.ID)
	}
	if e.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative for request %q", e.ID)
	}
	if _, err := e.Method(); err != nil {
		return fmt.Errorf("request %q: %w", e.ID, err)
	}
	if _, err := e.Encoding(); err != nil {
		return fmt.Errorf("request %q: %w", e.ID, err)
	}
	if _, err := e.Payload(); err != nil {
		return fmt.Errorf("request %q: %w", e.ID, err)
	}
	return nil
}

// All returns every entry in file order.
func (c *Catalog) All() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Enabled returns the enabled entries in file order.
func (c *Catalog) Enabled() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Enabled() {
			out = append(out, e)
		}
	}
	return out
}

// ByID returns the entry with id, if present.
func (c *Catalog) ByID(id string) (Entry, bool) {
	i, ok := c.idx[strings.TrimSpace(id)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Enabled defaults to true.
func (e Entry) Enabled() bool { return e.EnabledFlag == nil || *e.EnabledFlag }

// Timeout returns the entry timeout, or fallback when unset.
func (e Entry) Timeout(fallback time.Duration) time.Duration {
	if e.TimeoutSeconds > 0 {
		return time.Duration(e.TimeoutSeconds) * time.Second
	}
	return fallback
}

func (e Entry) Method() (wsclient.Method, error) {
	return wsclient.ParseMethod(e.HTTPMethod)
}

// Encoding builds the wsclient.Encoding described by the entry.
func (e Entry) Encoding() (wsclient.Encoding, error) {
	es := e.EncodingSpec
	switch es.Type {
	case "", "url":
	case "json":
		var w wsclient.JSONWriting
		if es.Pretty {
			w |= wsclient.JSONPrettyPrinted
		}
		if es.NoHTMLEscape {
			w |= wsclient.JSONNoHTMLEscape
		}
		return wsclient.JSONEncoding(w), nil
	default:
		return wsclient.Encoding{}, fmt.Errorf("unknown encoding type %q", es.Type)
	}

	var dest wsclient.Destination
	switch es.Destination {
	case "", "default", "method_dependent":
		dest = wsclient.MethodDependent
	case "query", "query_string":
		dest = wsclient.QueryString
	case "body", "http_body":
		dest = wsclient.HTTPBody
	default:
		return wsclient.Encoding{}, fmt.Errorf("unknown encoding destination %q", es.Destination)
	}

	var arrays wsclient.ArrayEncoding
	switch es.ArrayEncoding {
	case "", "brackets":
		arrays = wsclient.Brackets
	case "no_brackets":
		arrays = wsclient.NoBrackets
	case "indexed", "index_in_brackets":
		arrays = wsclient.IndexInBrackets
	default:
		return wsclient.Encoding{}, fmt.Errorf("unknown array_encoding %q", es.ArrayEncoding)
	}

	var bools wsclient.BoolEncoding
	switch es.BoolEncoding {
	case "", "numeric":
		bools = wsclient.Numeric
	case "literal":
		bools = wsclient.Literal
	default:
		return wsclient.Encoding{}, fmt.Errorf("unknown bool_encoding %q", es.BoolEncoding)
	}

	return wsclient.URLEncodingCustom(dest, arrays, bools), nil
}

// Payload builds the wsclient.Payload described by the entry.
func (e Entry) Payload() (wsclient.Payload, error) {
	p := e.PayloadSpec
	set := 0
	if p.Object != nil {
		set++
	}
	if p.Objects != nil {
		set++
	}
	if p.Raw != nil {
		set++
	}
	switch {
	case set > 1:
		return wsclient.Payload{}, errors.New("payload must set at most one of object, objects, raw")
	case p.Object != nil:
		return wsclient.Object(p.Object), nil
	case p.Objects != nil:
		return wsclient.Objects(p.Objects), nil
	case p.Raw != nil:
		return wsclient.Raw(*p.Raw), nil
	default:
		return wsclient.Payload{}, nil
	}
}
