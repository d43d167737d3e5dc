package dispatch

import (
	"strings"
	"unicode"
)

// words splits u on anything that is not a letter or digit, so "what's"
// yields "what" and "s".
func words(u string) []string {
	return strings.FieldsFunc(u, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// hasWord reports whether any of ws appears as a whole word in u.
func hasWord(u string, ws ...string) bool {
	for _, tok := range words(u) {
		for _, w := range ws {
			if tok == w {
				return true
			}
		}
	}
	return false
}

// hasPhrase reports whether any of ps is a substring of u.
func hasPhrase(u string, ps ...string) bool {
	for _, p := range ps {
		if strings.Contains(u, p) {
			return true
		}
	}
	return false
}

func hasDigit(u string) bool {
	return strings.IndexFunc(u, unicode.IsDigit) >= 0
}

// Normalize lowercases and trims an utterance before dispatch.
func Normalize(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}
