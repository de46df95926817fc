package cities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Москва", "москва"},
		{"  МОСКВА  ", "москва"},
		{"Орёл", "орел"},
		{"ОРЁЛ", "орел"},
		{"Ростов-на-Дону", "ростов-на-дону"},
		{"Нижний   Новгород", "нижний новгород"},
		{"Нижний\tНовгород", "нижний новгород"},
		{"Москва!", "москва"},
		{"«Казань»", "казань"},
		{"! Москва", "москва"},
		{"\u041e\u0440\u0435\u0308\u043b", "орел"}, // decomposed ё
		{"", ""},
		{"!!!", ""},
		{"123", "123"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.in), "Normalize(%q)", c.in)
	}
}

func TestNormalizeCollapsesVariants(t *testing.T) {
	assert.Equal(t, Normalize("Орёл"), Normalize("орел"))
	assert.Equal(t, Normalize("Королёв"), Normalize("королев"))
	assert.Equal(t, Normalize("ЙОШКАР-ОЛА"), Normalize("йошкар-ола"))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Москва", " Орёл ", "! Москва ?", "Санкт-Петербург", "Нижний \n Новгород",
		"İstanbul", "Ǆukanović", "é̈", "--", "  ", "Улан-Удэ", "ЁЁЁ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize not idempotent for %q", in)
	}
}
