// apps/go-server/internal/results/store.go
//
// Finished-game results and the leaderboard.
// A row is written when a game is won or explicitly ended; the leaderboard
// ranks by score, then by speed, then by who got there first.

package results

import (
	"context"
	"database/sql"
	"time"
)

// Outcome values stored in results.outcome.
const (
	OutcomeWon   = "won"
	OutcomeEnded = "ended"
)

// DefaultLimit is used when a caller asks for a non-positive limit.
const DefaultLimit = 20

// Result is one finished game.
type Result struct {
	PlayerID   string    `json:"playerId"`
	Outcome    string    `json:"outcome"`
	Score      int       `json:"score"`
	ElapsedMs  int64     `json:"elapsedMs"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Execer is satisfied by *sql.DB and *sql.Tx so results can join a caller's transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert records a finished game. A zero FinishedAt uses the current time.
func (s *Store) Insert(ctx context.Context, r Result) error {
	return InsertWith(ctx, s.db, r)
}

// InsertWith records a finished game through ex (a DB or an open transaction).
func InsertWith(ctx context.Context, ex Execer, r Result) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO results(player_id, outcome, score, elapsed_ms, finished_at)
		 VALUES(?,?,?,?,?)`,
		r.PlayerID, r.Outcome, r.Score, r.ElapsedMs, r.FinishedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ReassignWith moves every result of fromID to toID and returns how many rows moved.
func ReassignWith(ctx context.Context, ex Execer, fromID, toID string) (int64, error) {
	res, err := ex.ExecContext(ctx, `UPDATE results SET player_id=? WHERE player_id=?`, toID, fromID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Leaderboard returns the best results: score DESC, elapsed ASC, finished_at ASC.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, outcome, score, elapsed_ms, finished_at
		 FROM results
		 ORDER BY score DESC, elapsed_ms ASC, finished_at ASC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Result, 0, limit)
	for rows.Next() {
		var r Result
		var finished string
		if err := rows.Scan(&r.PlayerID, &r.Outcome, &r.Score, &r.ElapsedMs, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ForPlayer returns the player's most recent results, newest first.
func (s *Store) ForPlayer(ctx context.Context, playerID string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, outcome, score, elapsed_ms, finished_at
		 FROM results WHERE player_id=?
		 ORDER BY finished_at DESC, id DESC
		 LIMIT ?`, playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Result
	for rows.Next() {
		var r Result
		var finished string
		if err := rows.Scan(&r.PlayerID, &r.Outcome, &r.Score, &r.ElapsedMs, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}
