package utils

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// FilterKeys returns the keys matching pattern, keeping their order. Patterns
// with glob syntax ("user:*", "day-?", "[ab]*") must match the whole key; a
// plain pattern matches any key containing it. An empty pattern matches all.
func FilterKeys(keys []string, pattern string) ([]string, error) {
	if pattern == "" {
		return keys, nil
	}

	match := func(key string) bool { return strings.Contains(key, pattern) }
	if strings.ContainsAny(pattern, "*?[{") {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		match = g.Match
	}

	matched := make([]string, 0, len(keys))
	for _, key := range keys {
		if match(key) {
			matched = append(matched, key)
		}
	}
	return matched, nil
}
