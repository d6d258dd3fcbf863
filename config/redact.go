package config

import (
	"fmt"
	"slices"
	"strings"
)

// MaskAPIKey obfuscates the secret API key for output, keeping the first and
// last two characters: "abcdefghijklm" becomes "ab<9>lm". Keys shorter than
// five characters are hidden entirely.
func MaskAPIKey(key string) string {
	n := len(key)
	if n < 5 {
		return fmt.Sprintf("<%d>", n)
	}
	return fmt.Sprintf("%s<%d>%s", key[:2], n-4, key[n-2:])
}

// Dump formats a configuration map for display with the API key masked.
// Keys are sorted so the output is stable.
func Dump(config map[string]string, multiline bool) string {
	if len(config) == 0 {
		return "{<empty>}"
	}

	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := config[k]
		if k == KeyAPIKey {
			v = MaskAPIKey(v)
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, v))
	}

	if multiline {
		return strings.Join(parts, "\n")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
