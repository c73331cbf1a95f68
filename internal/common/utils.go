package common

import "strings"

// NormalizeSpace trims s and collapses every internal run of whitespace to a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FoldKey returns the case-insensitive, whitespace-normalized form of s used as a lookup key.
func FoldKey(s string) string {
	return strings.ToLower(NormalizeSpace(s))
}

// IsAlpha2 reports whether s is exactly two ASCII letters.
func IsAlpha2(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
