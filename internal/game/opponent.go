package game

import (
	"github.com/samber/lo"

	"github.com/robalobadob/cities/apps/go-server/internal/cities"
)

// SelectMove picks a uniformly random catalog city starting with letter that
// is not in used. ok is false when no such city exists.
func SelectMove(cat *cities.Catalog, letter rune, used map[string]struct{}, rnd Rand) (cities.Entry, bool) {
	if letter == 0 {
		return cities.Entry{}, false
	}
	available := lo.Filter(cat.StartingWith(letter), func(e cities.Entry, _ int) bool {
		_, taken := used[e.Canonical]
		return !taken
	})
	if len(available) == 0 {
		return cities.Entry{}, false
	}
	return available[rnd.IntN(len(available))], true
}
