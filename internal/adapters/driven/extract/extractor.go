// Package extract finds names, dates and organisations in text with
// regular expressions.
package extract

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// Entity kinds.
const (
	KindNames         = "names"
	KindDates         = "dates"
	KindOrganizations = "organizations"
)

// MaxPerKind caps each entity list.
const MaxPerKind = 50

var (
	datePattern = regexp.MustCompile(`\b(\d{1,2}\s+[A-Za-z]{3,9}\s+\d{4}|\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})\b`)
	orgPattern  = regexp.MustCompile(`\b([A-Z][A-Za-z&.\- ]+\s+(?:Inc|LLC|Ltd|Limited|LLP|PLC|Corp|Company))\b`)
	namePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})\b`)
)

// stopNames are capitalised words that are never names.
var stopNames = map[string]bool{"the": true, "and": true}

// Ensure Extractor implements the interface.
var _ driven.EntityExtractor = (*Extractor)(nil)

// Extractor is a heuristic entity extractor. It needs no model and is safe
// for concurrent use.
type Extractor struct{}

// New creates an extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns sorted, de-duplicated entities keyed by kind. Every kind
// is present, possibly empty.
func (e *Extractor) Extract(ctx context.Context, text string) (domain.Entities, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := matches(namePattern, text, func(s string) bool {
		return len(s) > 2 && !stopNames[strings.ToLower(s)]
	})

	return domain.Entities{
		KindNames:         names,
		KindDates:         matches(datePattern, text, nil),
		KindOrganizations: matches(orgPattern, text, nil),
	}, nil
}

// matches collects the first capture group of every match, trimmed, kept
// when keep allows it, then sorted and capped.
func matches(re *regexp.Regexp, text string, keep func(string) bool) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		s := strings.TrimSpace(m[1])
		if keep != nil && !keep(s) {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	if len(out) > MaxPerKind {
		out = out[:MaxPerKind]
	}
	return out
}
