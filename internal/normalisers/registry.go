package normalisers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.Parser = (*Registry)(nil)

// Registry dispatches parsing to registered normalisers by format.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates a registry with the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser. Later registrations win priority ties.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Parse extracts text from raw using the best normaliser for format.
func (r *Registry) Parse(ctx context.Context, raw []byte, format string) (string, error) {
	n := r.lookup(format)
	if n == nil {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := n.Normalise(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrCorruptInput) || ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrCorruptInput, err)
	}
	return text, nil
}

// Supports reports whether any normaliser handles format.
func (r *Registry) Supports(format string) bool {
	return r.lookup(format) != nil
}

// SupportedFormats returns every registered format, sorted.
func (r *Registry) SupportedFormats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	var formats []string
	for _, n := range r.normalisers {
		for _, f := range n.SupportedFormats() {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				formats = append(formats, f)
			}
		}
	}
	sort.Strings(formats)
	return formats
}

func (r *Registry) lookup(format string) driven.Normaliser {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.normalisers {
		for _, f := range n.SupportedFormats() {
			if f == format {
				return n
			}
		}
	}
	return nil
}
