package cities

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog(t *testing.T) {
	cat, err := New([]string{"Москва", "  Орёл ", "", "Керчь"})
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, []string{"Москва", "Орёл", "Керчь"}, cat.Names())

	e, ok := cat.Lookup("ОРЕЛ")
	require.True(t, ok)
	assert.Equal(t, "Орёл", e.Name)
	assert.Equal(t, "орел", e.Canonical)
	assert.Equal(t, 'о', e.First)

	_, ok = cat.Lookup("Лондон")
	assert.False(t, ok)
}

func TestNewCatalogEmpty(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = New([]string{"", "   ", "!!!"})
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := New([]string{"Орёл", "Москва", "орел"})
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Орёл", dup.First)
	assert.Equal(t, "орел", dup.Second)
	assert.Equal(t, "орел", dup.Canonical)
}

func TestNewCatalogRejectsLetterlessNames(t *testing.T) {
	_, err := New([]string{"Москва", "42"})
	assert.Error(t, err)
}

func TestStartingWith(t *testing.T) {
	cat, err := New([]string{"Москва", "Архангельск", "Казань", "Курск"})
	require.NoError(t, err)
	got := cat.StartingWith('к')
	require.Len(t, got, 2)
	assert.Equal(t, "Казань", got[0].Name)
	assert.Equal(t, "Курск", got[1].Name)
	assert.Empty(t, cat.StartingWith('я'))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.txt")
	require.NoError(t, os.WriteFile(path, []byte("# header\nМосква\n\nКазань\n"), 0o644))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Москва", "Казань"}, cat.Names())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestLoadUsesEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.txt")
	require.NoError(t, os.WriteFile(path, []byte("Тула\n"), 0o644))
	t.Setenv("CITIES_FILE", path)

	cat, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
}

func TestLoadEmbedded(t *testing.T) {
	cat, err := LoadEmbedded()
	require.NoError(t, err)
	assert.Greater(t, cat.Len(), 100)
	_, ok := cat.Lookup("москва")
	assert.True(t, ok)
}
