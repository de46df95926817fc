package results

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cities/apps/go-server/assets"
	"github.com/robalobadob/cities/apps/go-server/internal/database"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "results.db"), assets.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := []Result{
		{PlayerID: "slow", Outcome: OutcomeWon, Score: 5, ElapsedMs: 90_000, FinishedAt: base},
		{PlayerID: "fast", Outcome: OutcomeWon, Score: 5, ElapsedMs: 30_000, FinishedAt: base.Add(time.Minute)},
		{PlayerID: "best", Outcome: OutcomeEnded, Score: 9, ElapsedMs: 500_000, FinishedAt: base},
		{PlayerID: "late", Outcome: OutcomeWon, Score: 5, ElapsedMs: 30_000, FinishedAt: base.Add(2 * time.Minute)},
		{PlayerID: "low", Outcome: OutcomeEnded, Score: 1, ElapsedMs: 1_000, FinishedAt: base},
	}
	for _, r := range rows {
		require.NoError(t, st.Insert(ctx, r))
	}

	lb, err := st.Leaderboard(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, len(lb))
	for i, r := range lb {
		ids[i] = r.PlayerID
	}
	assert.Equal(t, []string{"best", "fast", "late", "slow", "low"}, ids)
	assert.Equal(t, base, lb[0].FinishedAt)

	lb, err = st.Leaderboard(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, lb, 2)
}

func TestInsertRejectsUnknownOutcome(t *testing.T) {
	st := newStore(t)
	err := st.Insert(context.Background(), Result{PlayerID: "p", Outcome: "lost"})
	assert.Error(t, err)
}

func TestForPlayer(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.Insert(ctx, Result{PlayerID: "a", Outcome: OutcomeWon, Score: 3, FinishedAt: base}))
	require.NoError(t, st.Insert(ctx, Result{PlayerID: "b", Outcome: OutcomeWon, Score: 4, FinishedAt: base}))
	require.NoError(t, st.Insert(ctx, Result{PlayerID: "a", Outcome: OutcomeEnded, Score: 1, FinishedAt: base.Add(time.Hour)}))

	got, err := st.ForPlayer(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, OutcomeEnded, got[0].Outcome)
	assert.Equal(t, OutcomeWon, got[1].Outcome)

	got, err = st.ForPlayer(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReassignWith(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	require.NoError(t, st.Insert(ctx, Result{PlayerID: "anon-1", Outcome: OutcomeWon, Score: 2}))
	require.NoError(t, st.Insert(ctx, Result{PlayerID: "anon-1", Outcome: OutcomeEnded, Score: 1}))
	require.NoError(t, st.Insert(ctx, Result{PlayerID: "other", Outcome: OutcomeEnded, Score: 1}))

	n, err := ReassignWith(ctx, st.db, "anon-1", "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := st.ForPlayer(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	got, err = st.ForPlayer(ctx, "anon-1", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err = ReassignWith(ctx, st.db, "anon-1", "user-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
