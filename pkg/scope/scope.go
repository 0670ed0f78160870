// Package scope handles OAuth scope strings as ordered sets.
package scope

import (
	"strings"
)

const (
	OpenID        = "openid"
	OfflineAccess = "offline_access"
)

// Parse splits a space-delimited scope string. Duplicates and empty
// elements are dropped; order of first occurrence is preserved.
func Parse(raw string) []string {
	return Normalize(strings.Fields(raw))
}

// Normalize removes duplicates and empty strings from a slice, trimming
// whitespace from each element.
func Normalize(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
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

// Join renders scopes in their wire form.
func Join(scopes []string) string {
	return strings.Join(scopes, " ")
}

func Contains(scopes []string, s string) bool {
	for _, v := range scopes {
		if v == s {
			return true
		}
	}
	return false
}

// Subset reports whether every element of want is in have.
func Subset(want, have []string) bool {
	for _, w := range want {
		if !Contains(have, w) {
			return false
		}
	}
	return true
}

// Intersect keeps the elements of a that are also in b, in a's order.
func Intersect(a, b []string) []string {
	out := make([]string, 0, len(a))
	for _, v := range a {
		if Contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}

// Missing returns the elements of want absent from have.
func Missing(want, have []string) []string {
	var out []string
	for _, w := range want {
		if !Contains(have, w) {
			out = append(out, w)
		}
	}
	return out
}
