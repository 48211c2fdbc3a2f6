// Package history keeps a short-lived journal of call outcomes.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-wsclient/internal/domain"
)

// Store records outcomes and serves them back until they expire.
type Store interface {
	Close() error
	Record(o domain.Outcome) error
	Get(callID string) (domain.Outcome, bool, error)
	// Recent returns up to limit outcomes, newest first.
	Recent(limit int) ([]domain.Outcome, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 7 * 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured history backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt history requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported history type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                             { return nil }
func (noopStore) Record(domain.Outcome) error              { return nil }
func (noopStore) Get(string) (domain.Outcome, bool, error) { return domain.Outcome{}, false, nil }
func (noopStore) Recent(int) ([]domain.Outcome, error)     { return nil, nil }
