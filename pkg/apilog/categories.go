package apilog

import (
	"fmt"
	"strings"
)

// Category selects a group of request/response details to log.
type Category string

const (
	CategoryURL             Category = "url"
	CategoryRequestHeaders  Category = "request_headers"
	CategoryStatusCode      Category = "status_code"
	CategoryResponseBody    Category = "response_body"
	CategoryError           Category = "error"
	CategoryResponseHeaders Category = "response_headers"
)

// AllCategories lists every recognized category.
func AllCategories() []Category {
	return []Category{
		CategoryURL, CategoryRequestHeaders, CategoryStatusCode,
		CategoryResponseBody, CategoryError, CategoryResponseHeaders,
	}
}

// DefaultCategories is every category except CategoryError.
func DefaultCategories() []Category {
	return []Category{
		CategoryURL, CategoryRequestHeaders, CategoryStatusCode,
		CategoryResponseBody, CategoryResponseHeaders,
	}
}

// ParseCategories reads a comma separated list; "all" selects every category.
func ParseCategories(s string) ([]Category, error) {
	var out []Category
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if name == "all" {
			return AllCategories(), nil
		}
		c, ok := lookupCategory(name)
		if !ok {
			return nil, fmt.Errorf("unknown api log category %q", part)
		}
		out = append(out, c)
	}
	return out, nil
}

func lookupCategory(name string) (Category, bool) {
	for _, c := range AllCategories() {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}
