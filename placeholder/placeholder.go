// Package placeholder fills {name} placeholders in manifest paths and
// feature templates.
package placeholder

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrUnknownVariable is returned by Expand for a placeholder with no value.
var ErrUnknownVariable = errors.New("unknown variable")

var braces = regexp.MustCompile(`[{}]`)

// Expand replaces every {name} in s from vars. Any placeholder without a
// value is an error naming it.
func Expand(s string, vars map[string]string) (string, error) {
	parts := braces.Split(s, -1)
	var b strings.Builder
	for i, part := range parts {
		if i%2 == 0 {
			b.WriteString(part)
			continue
		}
		v, ok := vars[part]
		if !ok {
			return "", fmt.Errorf("%w %q: set it with --vars %s=value", ErrUnknownVariable, part, part)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// Replace substitutes the placeholders it has values for and leaves the rest
// untouched, so a template can be filled in several passes.
func Replace(s string, vars map[string]string) string {
	if !strings.Contains(s, "{") {
		return s
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// ReplaceTree applies Replace to every string inside a decoded YAML or JSON
// document and returns the rewritten copy.
func ReplaceTree(v any, vars map[string]string) any {
	switch t := v.(type) {
	case string:
		return Replace(t, vars)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = ReplaceTree(val, vars)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = ReplaceTree(val, vars)
		}
		return out
	}
	return v
}
