// apps/go-server/internal/cities/normalize.go
//
// Canonical form of a city name.
// Every equality and set-membership check in the game goes through Normalize,
// so "Орёл", " орел " and "ОРЕЛ!" all collapse to the same identity.

package cities

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a city name:
//   - NFC composition (a decomposed "е" + U+0308 becomes "ё")
//   - lowercase
//   - "ё" → "е"
//   - drop everything except letters, digits, hyphens and whitespace
//   - trim and collapse runs of whitespace to one space
//
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	// Casers carry state; one per call keeps Normalize safe for concurrent use.
	s = cases.Lower(language.Russian).String(norm.NFC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == 'ё':
			b.WriteRune('е')
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
