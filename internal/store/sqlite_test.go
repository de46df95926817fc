package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cities/apps/go-server/assets"
	"github.com/robalobadob/cities/apps/go-server/internal/cities"
	"github.com/robalobadob/cities/apps/go-server/internal/database"
	"github.com/robalobadob/cities/apps/go-server/internal/game"
)

func newSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "test.db"), assets.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStore(db)
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, newSQLite(t))
}

func TestSQLiteStoreEmptyLetter(t *testing.T) {
	ctx := context.Background()
	st := newSQLite(t)
	in := &game.Session{PlayerID: "p", Used: []string{}, StartedAt: sampleSession("p").StartedAt}
	require.NoError(t, st.Put(ctx, in))

	got, err := st.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, rune(0), got.RequiredLetter)
	assert.Empty(t, got.Used)
}

func TestSQLiteStoreBacksEngine(t *testing.T) {
	ctx := context.Background()
	st := newSQLite(t)
	cat, err := cities.LoadEmbedded()
	require.NoError(t, err)
	eng := game.NewEngine(cat, st)

	s, err := eng.Start(ctx, "p")
	require.NoError(t, err)

	// A second engine over the same table sees the session, as after a restart.
	again := game.NewEngine(cat, st)
	got, err := again.State(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, s.LastCity, got.LastCity)
	assert.Equal(t, s.RequiredLetter, got.RequiredLetter)
	assert.True(t, s.StartedAt.Equal(got.StartedAt))

	res, err := again.End(ctx, "p")
	require.NoError(t, err)
	assert.True(t, res.Ended)
}
