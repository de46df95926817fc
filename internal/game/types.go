// apps/go-server/internal/game/types.go
//
// Core type definitions for the city-chain engine.
// Defines:
//   - Session: one player's game record.
//   - Reason: why a move (or start) was refused.
//   - Outcome: result of a submitted move (rejected / accepted / won).
//   - EndResult: result of an explicit end.

package game

import (
	"context"
	"errors"
	"slices"
	"time"
)

// Session holds the state of one player's city-chain game.
type Session struct {
	PlayerID       string
	Active         bool
	Used           []string // canonical names in chain order
	LastCity       string   // display form
	RequiredLetter rune     // LastLetter(LastCity)
	Score          int      // accepted player moves
	StartedAt      time.Time
}

// Clone returns a deep copy so stores never alias a caller's session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Used = slices.Clone(s.Used)
	return &cp
}

// HasUsed reports whether the canonical name was already played.
func (s *Session) HasUsed(canonical string) bool {
	return slices.Contains(s.Used, canonical)
}

// usedSet builds a lookup set over Used.
func (s *Session) usedSet() map[string]struct{} {
	m := make(map[string]struct{}, len(s.Used))
	for _, c := range s.Used {
		m[c] = struct{}{}
	}
	return m
}

// Reason explains a refused operation. It implements error so callers may
// use errors.Is against the constants below.
type Reason string

const (
	ReasonNotFound       Reason = "not_found"        // no catalog entry matches
	ReasonAlreadyUsed    Reason = "already_used"     // valid city, already in the chain
	ReasonWrongLetter    Reason = "wrong_letter"     // valid, unused, does not continue the chain
	ReasonNoActiveGame   Reason = "no_active_game"   // operation needs an active session
	ReasonGameInProgress Reason = "game_in_progress" // start while a session is active
)

func (r Reason) Error() string { return string(r) }

// ErrSessionNotFound is returned by a SessionStore when a player has no record.
var ErrSessionNotFound = errors.New("game: session not found")

// SessionStore persists one Session per player.
// Implementations may be backed by memory, SQL, files, etc. The engine serializes
// operations per player, so a store only needs each Put to be visible to the
// next Get for that player.
type SessionStore interface {
	Get(ctx context.Context, playerID string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Deactivate(ctx context.Context, playerID string) error
}

// Kind tags an Outcome.
type Kind string

const (
	KindRejected Kind = "rejected"
	KindAccepted Kind = "accepted"
	KindWon      Kind = "won"
)

// Outcome is the result of SubmitMove. Which fields are set depends on Kind:
//   - rejected: Reason, RequiredLetter (PlayerCity when the city exists)
//   - accepted: PlayerCity, OpponentCity, NextLetter, Score
//   - won:      PlayerCity, FinalScore, Elapsed
type Outcome struct {
	Kind           Kind
	Reason         Reason
	PlayerCity     string
	OpponentCity   string
	NextLetter     rune
	RequiredLetter rune
	Score          int
	FinalScore     int
	Elapsed        time.Duration
}

// EndResult is returned by End. Ended is false when no game was active.
type EndResult struct {
	Ended      bool
	FinalScore int
	Elapsed    time.Duration
}
