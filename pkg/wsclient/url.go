package wsclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// resolveURL parses raw, retrying once with disallowed characters
// percent-encoded. Relative references resolve against base; the result
// must be absolute.
func resolveURL(raw string, base *url.URL) (*url.URL, error) {
	u, err := parseStrict(raw)
	if err != nil {
		u, err = parseStrict(percentEncodeURL(raw))
	}
	if err != nil {
		return nil, &MalformedURLError{URL: raw, Err: err}
	}
	if base != nil && !u.IsAbs() {
		u = base.ResolveReference(u)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, &MalformedURLError{URL: raw, Err: errors.New("url is not absolute")}
	}
	return u, nil
}

// parseStrict rejects characters outside RFC 3986 and broken escapes
// before handing s to url.Parse, which is lenient about both.
func parseStrict(s string) (*url.URL, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("empty url")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' {
			if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
				return nil, fmt.Errorf("invalid escape at offset %d", i)
			}
			i += 2
			continue
		}
		if !urlAllowed(c) {
			return nil, fmt.Errorf("invalid character %q at offset %d", c, i)
		}
	}
	return url.Parse(s)
}

// percentEncodeURL escapes every byte outside the query-allowed set
// (unreserved plus !$&'()*+,;=:@/?).
func percentEncodeURL(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if urlQueryAllowed(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '-' || c == '.' || c == '_' || c == '~'
}

func urlQueryAllowed(c byte) bool {
	if isUnreserved(c) {
		return true
	}
	return strings.IndexByte("!$&'()*+,;=:@/?", c) >= 0
}

func urlAllowed(c byte) bool {
	if urlQueryAllowed(c) {
		return true
	}
	return c == '#' || c == '[' || c == ']'
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		return true
	}
	return false
}
