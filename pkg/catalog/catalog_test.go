package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-wsclient/pkg/wsclient"
)

const sampleYAML = `
requests:
  - id: search
    url: https://api.example.com/search
    headers:
      X-Token: abc
    encoding:
      type: url
      array_encoding: no_brackets
      bool_encoding: literal
    payload:
      object:
        q: tea
        tags: [a, b]
        fresh: true
  - id: create
    url: https://api.example.com/items
    method: post
    timeout_seconds: 5
    encoding:
      type: json
      pretty: true
    payload:
      object:
        name: masala
  - id: bulk
    url: https://api.example.com/bulk
    method: PUT
    enabled: false
    payload:
      objects:
        - id: 1
        - id: 2
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	c, err := Load(writeFile(t, "requests.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(c.All()); got != 3 {
		t.Fatalf("All() = %d entries", got)
	}
	enabled := c.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "search" || enabled[1].ID != "create" {
		t.Fatalf("Enabled() = %+v", enabled)
	}

	search, ok := c.ByID(" search ")
	if !ok {
		t.Fatal("search entry missing")
	}
	m, err := search.Method()
	if err != nil || m != wsclient.MethodGet {
		t.Fatalf("default method = %v, %v", m, err)
	}
	enc, err := search.Encoding()
	if err != nil {
		t.Fatal(err)
	}
	if enc.Kind() != wsclient.EncodingURL || enc.ArrayEncoding() != wsclient.NoBrackets || enc.BoolEncoding() != wsclient.Literal {
		t.Fatalf("search encoding = %+v", enc)
	}
	p, err := search.Payload()
	if err != nil || p.Kind() != wsclient.PayloadObject {
		t.Fatalf("search payload = %v, %v", p.Kind(), err)
	}
	if search.Headers["X-Token"] != "abc" {
		t.Fatalf("headers = %v", search.Headers)
	}
	if search.Timeout(time.Minute) != time.Minute {
		t.Fatal("expected fallback timeout")
	}

	create, _ := c.ByID("create")
	if m, _ := create.Method(); m != wsclient.MethodPost {
		t.Fatalf("create method = %v", m)
	}
	if create.Timeout(time.Minute) != 5*time.Second {
		t.Fatalf("create timeout = %v", create.Timeout(time.Minute))
	}
	enc, _ = create.Encoding()
	if enc.Kind() != wsclient.EncodingJSON || enc.Writing()&wsclient.JSONPrettyPrinted == 0 {
		t.Fatalf("create encoding = %+v", enc)
	}

	bulk, _ := c.ByID("bulk")
	if p, _ := bulk.Payload(); p.Kind() != wsclient.PayloadObjects {
		t.Fatalf("bulk payload kind = %v", p.Kind())
	}
}

func TestParseJSONRawPayload(t *testing.T) {
	data := []byte(`{"requests":[{"id":"echo","url":"https://example.com/echo","method":"POST","payload":{"raw":"a=b"}}]}`)
	c, err := Parse(data, ".json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e, _ := c.ByID("echo")
	p, err := e.Payload()
	if err != nil {
		t.Fatal(err)
	}
	if raw, ok := p.AsRaw(); !ok || raw != "a=b" {
		t.Fatalf("raw payload = %q, %v", raw, ok)
	}
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"empty":        "requests: []",
		"missing id":   "requests:\n  - url: https://example.com",
		"missing url":  "requests:\n  - id: a",
		"bad method":   "requests:\n  - id: a\n    url: https://example.com\n    method: FETCH",
		"bad encoding": "requests:\n  - id: a\n    url: https://example.com\n    encoding:\n      type: xml",
		"bad dest":     "requests:\n  - id: a\n    url: https://example.com\n    encoding:\n      destination: header",
		"two payloads": "requests:\n  - id: a\n    url: https://example.com\n    payload:\n      raw: x\n      object:\n        k: v",
		"duplicate":    "requests:\n  - id: a\n    url: https://example.com\n  - id: a\n    url: https://example.org",
		"negative":     "requests:\n  - id: a\n    url: https://example.com\n    timeout_seconds: -1",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(body), ".yaml"); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestParseUnknownExtension(t *testing.T) {
	_, err := Parse([]byte("requests: []"), ".toml")
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
	if _, err := Load("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
