package tooling

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/concierge-labs/concierge/pkg/errorsx"
)

// DefaultSeparator is the delimiter used by composite string inputs such as
// "file.csv||What is total revenue?".
const DefaultSeparator = "||"

// ParseDelimited splits a composite argument into exactly arity parts. The
// failure message names the expected shape so a model can correct itself and
// a user can understand what was wrong.
func ParseDelimited(input string, arity int, sep string) ([]string, error) {
	if arity <= 0 {
		return nil, fmt.Errorf("arity must be positive, got %d", arity)
	}
	if sep == "" {
		sep = DefaultSeparator
	}
	parts := strings.SplitN(input, sep, arity)
	if len(parts) != arity {
		placeholders := make([]string, arity)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("<part%d>", i+1)
		}
		return nil, errorsx.E(errorsx.KindMalformedToolInput,
			"expected %d parts separated by %q, e.g. %q; got %q",
			arity, sep, strings.Join(placeholders, sep), input)
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return nil, errorsx.E(errorsx.KindMalformedToolInput,
				"part %d of %d is empty; expected %d non-empty parts separated by %q",
				i+1, arity, arity, sep)
		}
	}
	return parts, nil
}

// StringArg extracts a string argument, tolerating non-string scalars the way
// model-produced JSON tends to arrive.
func StringArg(args map[string]any, name string) string {
	v, ok := args[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// IntArg extracts an integer argument, accepting JSON numbers and numeric
// strings. Returns fallback when absent or unparseable.
func IntArg(args map[string]any, name string, fallback int) int {
	v, ok := args[name]
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return fallback
}
