// apps/go-server/internal/game/engine.go
//
// Turn controller for the city-chain game.
// Responsibilities:
//   - Start a session with a random opening city.
//   - Validate and apply player moves, then answer with an opponent city.
//   - Track state transitions: no game → active → won / ended.
//   - Serialize every operation per player; different players run in parallel.
//
// Notes:
//   - Cities come from the cities package; persistence is a SessionStore.
//   - Randomness and time are injectable (WithRand, WithClock) for tests.
//   - Rejected moves never touch the store.

package game

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cities/apps/go-server/internal/cities"
)

// Rand is the random source for the opening city and opponent replies.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// cryptoRand draws from crypto/rand. It is the default source.
type cryptoRand struct{}

func (cryptoRand) IntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		log.Warn().Err(err).Msg("crypto rand failed, using index 0")
		return 0
	}
	return int(v.Int64())
}

// lockedRand makes a Rand safe for concurrent players.
type lockedRand struct {
	mu  sync.Mutex
	src Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

// Engine runs city-chain games for any number of players.
type Engine struct {
	catalog *cities.Catalog
	store   SessionStore
	rnd     Rand
	now     func() time.Time
	locks   *playerLocks
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand replaces the default crypto/rand source.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rnd = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires a catalog and a session store into an engine.
func NewEngine(cat *cities.Catalog, st SessionStore, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		store:   st,
		rnd:     cryptoRand{},
		now:     time.Now,
		locks:   newPlayerLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rnd = &lockedRand{src: e.rnd}
	return e
}

// Catalog exposes the engine's city list.
func (e *Engine) Catalog() *cities.Catalog { return e.catalog }

// load returns the player's session, or nil when there is none.
func (e *Engine) load(ctx context.Context, playerID string) (*Session, error) {
	s, err := e.store.Get(ctx, playerID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", playerID, err)
	}
	return s, nil
}

// Start opens a new game with a random city.
// If the player already has an active game it is returned unchanged together
// with ReasonGameInProgress.
func (e *Engine) Start(ctx context.Context, playerID string) (*Session, error) {
	unlock := e.locks.lock(playerID)
	defer unlock()

	cur, err := e.load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if cur != nil && cur.Active {
		return cur, ReasonGameInProgress
	}

	entries := e.catalog.Entries()
	opening := entries[e.rnd.IntN(len(entries))]
	letter, _ := cities.LastLetter(opening.Canonical)
	s := &Session{
		PlayerID:       playerID,
		Active:         true,
		Used:           []string{opening.Canonical},
		LastCity:       opening.Name,
		RequiredLetter: letter,
		StartedAt:      e.now(),
	}
	if err := e.store.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("save session %s: %w", playerID, err)
	}
	log.Info().Str("player", playerID).Str("opening", opening.Name).Msg("cities game started")
	return s.Clone(), nil
}

// SubmitMove applies the player's city and answers with an opponent city.
// Refused input is reported as a KindRejected outcome with a nil error; the
// error return is reserved for store failures.
func (e *Engine) SubmitMove(ctx context.Context, playerID, text string) (Outcome, error) {
	unlock := e.locks.lock(playerID)
	defer unlock()

	cur, err := e.load(ctx, playerID)
	if err != nil {
		return Outcome{}, err
	}
	if cur == nil || !cur.Active {
		return Outcome{Kind: KindRejected, Reason: ReasonNoActiveGame}, nil
	}

	match, err := Validate(e.catalog, cur, text)
	if err != nil {
		var reason Reason
		if !errors.As(err, &reason) {
			return Outcome{}, err
		}
		log.Debug().Str("player", playerID).Str("input", text).Str("reason", string(reason)).Msg("move rejected")
		return Outcome{Kind: KindRejected, Reason: reason, PlayerCity: match.Name, RequiredLetter: cur.RequiredLetter}, nil
	}

	next := cur.Clone()
	next.Used = append(next.Used, match.Canonical)
	next.LastCity = match.Name
	next.RequiredLetter, _ = cities.LastLetter(match.Canonical)
	next.Score++

	reply, ok := SelectMove(e.catalog, next.RequiredLetter, next.usedSet(), e.rnd)
	if !ok {
		next.Active = false
		elapsed := e.now().Sub(next.StartedAt)
		if err := e.store.Put(ctx, next); err != nil {
			return Outcome{}, fmt.Errorf("save session %s: %w", playerID, err)
		}
		log.Info().Str("player", playerID).Int("score", next.Score).Dur("elapsed", elapsed).Msg("cities game won")
		return Outcome{Kind: KindWon, PlayerCity: match.Name, FinalScore: next.Score, Elapsed: elapsed}, nil
	}

	next.Used = append(next.Used, reply.Canonical)
	next.LastCity = reply.Name
	next.RequiredLetter, _ = cities.LastLetter(reply.Canonical)
	if err := e.store.Put(ctx, next); err != nil {
		return Outcome{}, fmt.Errorf("save session %s: %w", playerID, err)
	}
	log.Debug().Str("player", playerID).Str("city", match.Name).Str("reply", reply.Name).Msg("move accepted")
	return Outcome{
		Kind:         KindAccepted,
		PlayerCity:   match.Name,
		OpponentCity: reply.Name,
		NextLetter:   next.RequiredLetter,
		Score:        next.Score,
	}, nil
}

// End stops the player's active game. Without one it reports Ended=false.
func (e *Engine) End(ctx context.Context, playerID string) (EndResult, error) {
	unlock := e.locks.lock(playerID)
	defer unlock()

	cur, err := e.load(ctx, playerID)
	if err != nil {
		return EndResult{}, err
	}
	if cur == nil || !cur.Active {
		return EndResult{}, nil
	}
	elapsed := e.now().Sub(cur.StartedAt)
	if err := e.store.Deactivate(ctx, playerID); err != nil {
		return EndResult{}, fmt.Errorf("deactivate session %s: %w", playerID, err)
	}
	log.Info().Str("player", playerID).Int("score", cur.Score).Dur("elapsed", elapsed).Msg("cities game ended")
	return EndResult{Ended: true, FinalScore: cur.Score, Elapsed: elapsed}, nil
}

// Transfer hands fromID's active game over to toID, for a guest who signs in
// mid-game. It reports false and changes nothing when fromID has no active game
// or toID already has one. The source session is left inactive.
func (e *Engine) Transfer(ctx context.Context, fromID, toID string) (bool, error) {
	if fromID == toID {
		return false, nil
	}
	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}
	unlockFirst := e.locks.lock(first)
	defer unlockFirst()
	unlockSecond := e.locks.lock(second)
	defer unlockSecond()

	src, err := e.load(ctx, fromID)
	if err != nil {
		return false, err
	}
	if src == nil || !src.Active {
		return false, nil
	}
	dst, err := e.load(ctx, toID)
	if err != nil {
		return false, err
	}
	if dst != nil && dst.Active {
		return false, nil
	}

	moved := src.Clone()
	moved.PlayerID = toID
	if err := e.store.Put(ctx, moved); err != nil {
		return false, fmt.Errorf("save session %s: %w", toID, err)
	}
	if err := e.store.Deactivate(ctx, fromID); err != nil {
		return false, fmt.Errorf("deactivate session %s: %w", fromID, err)
	}
	log.Info().Str("from", fromID).Str("to", toID).Int("score", moved.Score).Msg("cities game transferred")
	return true, nil
}

// IsActive reports whether the player has a game in progress.
func (e *Engine) IsActive(ctx context.Context, playerID string) (bool, error) {
	s, err := e.State(ctx, playerID)
	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.Active, nil
}

// State returns a copy of the player's latest session, active or not.
// It returns ErrSessionNotFound if the player never played.
func (e *Engine) State(ctx context.Context, playerID string) (*Session, error) {
	unlock := e.locks.lock(playerID)
	defer unlock()

	s, err := e.load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}
