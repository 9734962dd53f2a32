package servicecache

import (
	"strings"
	"unicode"
)

// toSnake converts a method name to snake_case. Punctuation collapses into a
// single underscore so the result is safe inside a prefix-matched key.
func toSnake(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	sep := false
	underscore := func() {
		if !sep && b.Len() > 0 {
			b.WriteByte('_')
			sep = true
		}
	}

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					underscore()
				}
			}
			b.WriteRune(unicode.ToLower(r))
			sep = false

		case unicode.IsLower(r):
			b.WriteRune(r)
			sep = false

		case unicode.IsDigit(r):
			if i > 0 && unicode.IsLetter(runes[i-1]) && !unicode.IsUpper(runes[i-1]) {
				underscore()
			}
			b.WriteRune(r)
			sep = false

		default:
			underscore()
		}
	}

	return strings.Trim(b.String(), "_")
}
