package fuzzy

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds text to the form the ranking engine compares: canonical
// decomposition with combining marks dropped, so "café" matches "cafe".
// Invalid UTF-8 is replaced rather than rejected.
func Normalize(s string) string {
	if isASCII(s) {
		return s
	}
	if !utf8.ValidString(s) {
		s = string([]rune(s))
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
