package wsclient

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// queryString renders params as key=value pairs joined by '&'. Keys are
// sorted; nested objects use parent[child] keys.
func queryString(params map[string]any, arrays ArrayEncoding, bools BoolEncoding) string {
	keys := sortedKeys(params)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = appendComponents(pairs, k, params[k], arrays, bools)
	}
	return strings.Join(pairs, "&")
}

func appendComponents(pairs []string, key string, value any, arrays ArrayEncoding, bools BoolEncoding) []string {
	switch v := value.(type) {
	case nil:
		return append(pairs, escapeQuery(key)+"=")
	case map[string]any:
		for _, nk := range sortedKeys(v) {
			pairs = appendComponents(pairs, key+"["+nk+"]", v[nk], arrays, bools)
		}
		return pairs
	case []any:
		for i, el := range v {
			pairs = appendComponents(pairs, arrays.key(key, i), el, arrays, bools)
		}
		return pairs
	case []map[string]any:
		for i, el := range v {
			pairs = appendComponents(pairs, arrays.key(key, i), el, arrays, bools)
		}
		return pairs
	case bool:
		return append(pairs, escapeQuery(key)+"="+escapeQuery(bools.encode(v)))
	case string:
		return append(pairs, escapeQuery(key)+"="+escapeQuery(v))
	case []byte:
		return append(pairs, escapeQuery(key)+"="+escapeQuery(string(v)))
	case float64:
		return append(pairs, escapeQuery(key)+"="+escapeQuery(strconv.FormatFloat(v, 'f', -1, 64)))
	case float32:
		return append(pairs, escapeQuery(key)+"="+escapeQuery(strconv.FormatFloat(float64(v), 'f', -1, 32)))
	}

	// Typed slices and string-keyed maps decoded from YAML or built by callers.
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			pairs = appendComponents(pairs, arrays.key(key, i), rv.Index(i).Interface(), arrays, bools)
		}
		return pairs
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			nested := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				nested[iter.Key().String()] = iter.Value().Interface()
			}
			return appendComponents(pairs, key, nested, arrays, bools)
		}
	}
	return append(pairs, escapeQuery(key)+"="+escapeQuery(fmt.Sprint(value)))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const upperhex = "0123456789ABCDEF"

// escapeQuery percent-encodes every byte except unreserved characters, '/' and '?'.
func escapeQuery(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if queryAllowed(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func queryAllowed(c byte) bool {
	return isUnreserved(c) || c == '/' || c == '?'
}
