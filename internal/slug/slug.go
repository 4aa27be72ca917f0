// Package slug maps display names to URL-safe identifiers.
package slug

import "strings"

// Generate lowercases the name, drops everything outside [a-z0-9 -],
// folds whitespace runs and repeated hyphens into single hyphens, and
// trims leading/trailing hyphens. The result may be empty when the
// input contains no usable characters; callers must treat an empty
// slug as invalid.
func Generate(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '-':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
