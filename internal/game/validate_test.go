package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cities/apps/go-server/internal/cities"
	"github.com/robalobadob/cities/apps/go-server/internal/game"
)

func TestValidate(t *testing.T) {
	cat, err := cities.New([]string{"Москва", "Архангельск", "Казань", "Орёл"})
	require.NoError(t, err)
	s := &game.Session{
		Active:         true,
		Used:           []string{"москва"},
		LastCity:       "Москва",
		RequiredLetter: 'а',
	}

	cases := []struct {
		input string
		want  string
		err   error
	}{
		{"Архангельск", "Архангельск", nil},
		{"  архангельск!", "Архангельск", nil},
		{"Лондон", "", game.ReasonNotFound},
		{"москва", "Москва", game.ReasonAlreadyUsed},
		{"Казань", "Казань", game.ReasonWrongLetter},
		{"орел", "Орёл", game.ReasonWrongLetter},
	}
	for _, c := range cases {
		got, err := game.Validate(cat, s, c.input)
		if c.err == nil {
			assert.NoError(t, err, c.input)
		} else {
			assert.ErrorIs(t, err, c.err, c.input)
		}
		assert.Equal(t, c.want, got.Name, c.input)
	}

	// validation never mutates the session
	assert.Equal(t, []string{"москва"}, s.Used)
}

func TestValidateAlreadyUsedBeforeWrongLetter(t *testing.T) {
	cat, err := cities.New([]string{"Москва", "Казань"})
	require.NoError(t, err)
	s := &game.Session{Active: true, Used: []string{"москва", "казань"}, RequiredLetter: 'н'}
	_, err = game.Validate(cat, s, "Казань")
	assert.ErrorIs(t, err, game.ReasonAlreadyUsed)
}
