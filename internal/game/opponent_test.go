package game_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cities/apps/go-server/internal/cities"
	"github.com/robalobadob/cities/apps/go-server/internal/game"
)

func TestSelectMoveNeverReturnsUsedOrWrongLetter(t *testing.T) {
	cat, err := cities.LoadEmbedded()
	require.NoError(t, err)
	rnd := rand.New(rand.NewPCG(42, 42))
	entries := cat.Entries()

	for i := 0; i < 500; i++ {
		used := make(map[string]struct{})
		for j := rnd.IntN(len(entries)); j > 0; j-- {
			used[entries[rnd.IntN(len(entries))].Canonical] = struct{}{}
		}
		letter := entries[rnd.IntN(len(entries))].First

		got, ok := game.SelectMove(cat, letter, used, rnd)
		if !ok {
			for _, e := range cat.StartingWith(letter) {
				_, taken := used[e.Canonical]
				assert.True(t, taken, "%q was available for %q", e.Name, letter)
			}
			continue
		}
		assert.Equal(t, letter, got.First)
		_, taken := used[got.Canonical]
		assert.False(t, taken, "%q already used", got.Name)
	}
}

func TestSelectMoveNone(t *testing.T) {
	cat, err := cities.New([]string{"Москва", "Мурманск"})
	require.NoError(t, err)
	rnd := rand.New(rand.NewPCG(1, 2))

	_, ok := game.SelectMove(cat, 'к', nil, rnd)
	assert.False(t, ok)

	_, ok = game.SelectMove(cat, 'м', map[string]struct{}{"москва": {}, "мурманск": {}}, rnd)
	assert.False(t, ok)

	got, ok := game.SelectMove(cat, 'м', map[string]struct{}{"москва": {}}, rnd)
	require.True(t, ok)
	assert.Equal(t, "Мурманск", got.Name)

	_, ok = game.SelectMove(cat, 0, nil, rnd)
	assert.False(t, ok)
}

func TestSelectMoveCoversAllCandidates(t *testing.T) {
	cat, err := cities.New([]string{"Тула", "Тверь", "Томск", "Москва"})
	require.NoError(t, err)
	rnd := rand.New(rand.NewPCG(5, 6))

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		got, ok := game.SelectMove(cat, 'т', nil, rnd)
		require.True(t, ok)
		seen[got.Name] = true
	}
	assert.Equal(t, map[string]bool{"Тула": true, "Тверь": true, "Томск": true}, seen)
}
