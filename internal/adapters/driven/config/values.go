// Package config holds the value conversions shared by the configuration
// stores. TOML decodes integers as int64 and floats as float64, while
// environment overrides always arrive as strings, so every getter accepts
// both shapes.
package config

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// String returns v when it is a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int converts v to an int. Floats are truncated.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}

// Float converts v to a float64.
func Float(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Bool converts v to a bool.
func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return false
}

// Duration converts a duration string or a whole number of seconds.
// Negative and unparsable values become 0.
func Duration(v any) time.Duration {
	var d time.Duration
	switch x := v.(type) {
	case time.Duration:
		d = x
	case int64:
		d = time.Duration(x) * time.Second
	case int:
		d = time.Duration(x) * time.Second
	case string:
		s := strings.TrimSpace(x)
		if parsed, err := time.ParseDuration(s); err == nil {
			d = parsed
		} else if secs, err := strconv.Atoi(s); err == nil {
			d = time.Duration(secs) * time.Second
		}
	}
	if d < 0 {
		return 0
	}
	return d
}

// Flatten turns nested tables into dot-separated keys:
// {"qa": {"top_k": 5}} becomes {"qa.top_k": 5}.
func Flatten(tree map[string]any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, tree, "")
	return out
}

func flattenInto(out, tree map[string]any, prefix string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, nested, key)
			continue
		}
		out[key] = v
	}
}

// Nest is the inverse of Flatten. When a key is both a value and a table
// prefix, the longer key stays flat under its full dotted name.
func Nest(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tree := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		node := tree
		for _, p := range parts[:len(parts)-1] {
			child, exists := node[p]
			if !exists {
				next := make(map[string]any)
				node[p] = next
				node = next
				continue
			}
			next, isTable := child.(map[string]any)
			if !isTable {
				node = nil
				break
			}
			node = next
		}
		if node == nil {
			tree[key] = flat[key]
			continue
		}
		node[parts[len(parts)-1]] = flat[key]
	}
	return tree
}
