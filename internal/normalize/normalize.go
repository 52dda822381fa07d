// Package normalize derives blocking keys from raw column values.
package normalize

import (
	"strings"
	"unicode"
)

// Key canonicalizes a raw value for use as a blocking key: uppercased with
// all whitespace removed. "sw1a 1aa" and "SW1A1AA" key identically.
func Key(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Prefix truncates a normalized key to its first n runes. Prefix keying is a
// deliberate approximation: records whose full keys differ beyond the prefix
// still land in the same bucket, trading recall for throughput on
// high-cardinality fields such as postcodes.
func Prefix(key string, n int) string {
	if n <= 0 {
		return key
	}
	runes := []rune(key)
	if len(runes) <= n {
		return key
	}
	return string(runes[:n])
}
