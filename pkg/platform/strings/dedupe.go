// Package strings provides string list helpers shared by configuration
// parsing and the card allow-list.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{" 4111111111111111 ", "", "4111111111111111"})
//	// Returns: []string{"4111111111111111"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var result []string

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// SplitList splits a comma separated list and applies DedupeAndTrim. A blank
// input yields nil.
func SplitList(s string) []string {
	return DedupeAndTrim(strings.Split(s, ","))
}
