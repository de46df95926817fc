// apps/go-server/internal/store/sqlite.go
//
// SQLite implementation of game.SessionStore (SESSION_STORE=sqlite, default).
// Sessions survive restarts; one row per player in city_sessions.
//
// Row layout:
//   - used_cities: JSON array of canonical names in chain order.
//   - required_letter: the letter as a one-rune string ("" when unset).
//   - started_at / updated_at: RFC3339Nano, UTC.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/robalobadob/cities/apps/go-server/internal/game"
)

// SQLite stores sessions in the city_sessions table.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

// Get loads the player's session or returns game.ErrSessionNotFound.
func (s *SQLite) Get(ctx context.Context, playerID string) (*game.Session, error) {
	var (
		active             bool
		used, last, letter string
		score              int
		started            string
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT active, used_cities, last_city, required_letter, score, started_at
        FROM city_sessions WHERE player_id=?`, playerID,
	).Scan(&active, &used, &last, &letter, &score, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	sess := &game.Session{
		PlayerID: playerID,
		Active:   active,
		LastCity: last,
		Score:    score,
	}
	if err := json.Unmarshal([]byte(used), &sess.Used); err != nil {
		return nil, fmt.Errorf("decode used_cities for %s: %w", playerID, err)
	}
	if letter != "" {
		sess.RequiredLetter, _ = utf8.DecodeRuneInString(letter)
	}
	if sess.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("decode started_at for %s: %w", playerID, err)
	}
	return sess, nil
}

// Put upserts the player's session.
func (s *SQLite) Put(ctx context.Context, sess *game.Session) error {
	used, err := json.Marshal(sess.Used)
	if err != nil {
		return err
	}
	letter := ""
	if sess.RequiredLetter != 0 {
		letter = string(sess.RequiredLetter)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO city_sessions
            (player_id, active, used_cities, last_city, required_letter, score, started_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(player_id) DO UPDATE SET
            active=excluded.active,
            used_cities=excluded.used_cities,
            last_city=excluded.last_city,
            required_letter=excluded.required_letter,
            score=excluded.score,
            started_at=excluded.started_at,
            updated_at=excluded.updated_at`,
		sess.PlayerID, sess.Active, string(used), sess.LastCity, letter, sess.Score,
		sess.StartedAt.UTC().Format(time.RFC3339Nano),
		s.now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Deactivate marks the player's session inactive.
func (s *SQLite) Deactivate(ctx context.Context, playerID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE city_sessions SET active=0, updated_at=? WHERE player_id=?`,
		s.now().UTC().Format(time.RFC3339Nano), playerID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return game.ErrSessionNotFound
	}
	return nil
}
