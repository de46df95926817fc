// apps/go-server/internal/cities/letters.go
//
// Effective first/last letters for chaining cities.
// No Russian city begins with ь, ъ or ы, so the letter to continue on is the
// nearest real letter before any of them ("Керчь" → "ч", "Тынды" → "д").

package cities

import (
	"unicode"
	"unicode/utf8"
)

// excluded letters never start a city name.
var excluded = map[rune]struct{}{
	'ь': {},
	'ъ': {},
	'ы': {},
}

// FirstLetter returns the first rune of the canonical name.
// ok is false when the name is empty or does not start with a letter.
func FirstLetter(city string) (r rune, ok bool) {
	n := Normalize(city)
	if n == "" {
		return 0, false
	}
	r, _ = utf8.DecodeRuneInString(n)
	if !unicode.IsLetter(r) {
		return 0, false
	}
	return r, true
}

// LastLetter scans the canonical name from the end and returns the first letter
// that is not ь, ъ or ы. Digits, hyphens and spaces are skipped as well.
func LastLetter(city string) (r rune, ok bool) {
	rs := []rune(Normalize(city))
	for i := len(rs) - 1; i >= 0; i-- {
		if !unicode.IsLetter(rs[i]) {
			continue
		}
		if _, skip := excluded[rs[i]]; skip {
			continue
		}
		return rs[i], true
	}
	return 0, false
}
