package game

import (
	"github.com/robalobadob/cities/apps/go-server/internal/cities"
)

// Validate checks a raw player submission against the session without
// mutating anything. Checks run in order: catalog match, reuse, letter.
// On success it returns the matched catalog entry.
func Validate(cat *cities.Catalog, s *Session, raw string) (cities.Entry, error) {
	match, ok := cat.Lookup(raw)
	if !ok {
		return cities.Entry{}, ReasonNotFound
	}
	if s.HasUsed(match.Canonical) {
		return match, ReasonAlreadyUsed
	}
	if match.First != s.RequiredLetter {
		return match, ReasonWrongLetter
	}
	return match, nil
}
