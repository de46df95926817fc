// apps/go-server/internal/httpserver/routes_cities.go
//
// HTTP routes for the city-chain game, mounted under /cities:
//   - POST /cities/start       → open a game; the server names the first city
//   - POST /cities/move        → submit a city; answered by the server's city
//   - POST /cities/end         → give up / stop the current game
//   - GET  /cities/state       → current chain, letter and score
//   - GET  /cities/history     → the caller's finished games
//   - GET  /cities/leaderboard → best finished games overall
//
// The engine owns all game rules; this file maps outcomes to status codes and
// records finished games (results row + user counters) on a best-effort basis.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/cities/apps/go-server/internal/game"
	"github.com/robalobadob/cities/apps/go-server/internal/results"
)

// mountCities registers all /cities routes.
func (s *Server) mountCities(r chi.Router) {
	r.Route("/cities", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Post("/move", s.handleMove)
		r.Post("/end", s.handleEnd)
		r.Get("/state", s.handleState)
		r.Get("/history", s.handleHistory)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

// letter renders a chaining letter for clients ("" when unset).
func letter(r rune) string {
	if r == 0 {
		return ""
	}
	return string(r)
}

// -----------------------------------------------------------------------------
// /cities/start

type startRes struct {
	Opening string `json:"opening"`
	Letter  string `json:"letter"`
}

type inProgressRes struct {
	Error    string `json:"error"`
	LastCity string `json:"lastCity"`
	Letter   string `json:"letter"`
	Score    int    `json:"score"`
}

// handleStart opens a game. A player with a game in progress gets 409 and the
// current position instead of a fresh game.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	pid, _ := s.playerID(w, r)
	sess, err := s.engine.Start(r.Context(), pid)
	if errors.Is(err, game.ReasonGameInProgress) {
		writeJSON(w, http.StatusConflict, inProgressRes{
			Error:    string(game.ReasonGameInProgress),
			LastCity: sess.LastCity,
			Letter:   letter(sess.RequiredLetter),
			Score:    sess.Score,
		})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("player", pid).Msg("start game")
		writeError(w, http.StatusInternalServerError, "start_failed")
		return
	}
	_ = json.NewEncoder(w).Encode(startRes{Opening: sess.LastCity, Letter: letter(sess.RequiredLetter)})
}

// -----------------------------------------------------------------------------
// /cities/move

type moveReq struct {
	City string `json:"city"`
}

type moveRes struct {
	Kind           game.Kind   `json:"kind"`
	Reason         game.Reason `json:"reason,omitempty"`
	PlayerCity     string      `json:"playerCity,omitempty"`
	OpponentCity   string      `json:"opponentCity,omitempty"`
	NextLetter     string      `json:"nextLetter,omitempty"`
	RequiredLetter string      `json:"requiredLetter,omitempty"`
	Score          int         `json:"score"`
	FinalScore     int         `json:"finalScore,omitempty"`
	ElapsedMs      int64       `json:"elapsedMs,omitempty"`
}

// handleMove submits the player's city.
// Status codes: 200 accepted/won, 422 rejected, 409 no active game, 429 too fast.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	pid, me := s.playerID(w, r)
	if !s.limiters.allow(pid) {
		writeError(w, http.StatusTooManyRequests, "too_many_requests")
		return
	}

	out, err := s.engine.SubmitMove(r.Context(), pid, req.City)
	if err != nil {
		log.Error().Err(err).Str("player", pid).Msg("submit move")
		writeError(w, http.StatusInternalServerError, "move_failed")
		return
	}

	res := moveRes{
		Kind:           out.Kind,
		Reason:         out.Reason,
		PlayerCity:     out.PlayerCity,
		OpponentCity:   out.OpponentCity,
		NextLetter:     letter(out.NextLetter),
		RequiredLetter: letter(out.RequiredLetter),
		Score:          out.Score,
		FinalScore:     out.FinalScore,
		ElapsedMs:      out.Elapsed.Milliseconds(),
	}
	switch out.Kind {
	case game.KindRejected:
		status := http.StatusUnprocessableEntity
		if out.Reason == game.ReasonNoActiveGame {
			status = http.StatusConflict
		}
		writeJSON(w, status, res)
	case game.KindWon:
		res.Score = out.FinalScore
		s.recordFinish(r.Context(), pid, me, results.OutcomeWon, out.FinalScore, out.Elapsed)
		writeJSON(w, http.StatusOK, res)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// -----------------------------------------------------------------------------
// /cities/end

type endRes struct {
	Ended      bool  `json:"ended"`
	FinalScore int   `json:"finalScore"`
	ElapsedMs  int64 `json:"elapsedMs"`
}

// handleEnd stops the current game. Ending without a game is not an error:
// the response simply says ended=false.
func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	pid, me := s.playerID(w, r)
	res, err := s.engine.End(r.Context(), pid)
	if err != nil {
		log.Error().Err(err).Str("player", pid).Msg("end game")
		writeError(w, http.StatusInternalServerError, "end_failed")
		return
	}
	if res.Ended {
		s.recordFinish(r.Context(), pid, me, results.OutcomeEnded, res.FinalScore, res.Elapsed)
	}
	_ = json.NewEncoder(w).Encode(endRes{Ended: res.Ended, FinalScore: res.FinalScore, ElapsedMs: res.Elapsed.Milliseconds()})
}

// -----------------------------------------------------------------------------
// /cities/state

type stateRes struct {
	Active    bool       `json:"active"`
	LastCity  string     `json:"lastCity,omitempty"`
	Letter    string     `json:"letter,omitempty"`
	Score     int        `json:"score"`
	Chain     []string   `json:"chain,omitempty"` // display names, chain order
	StartedAt *time.Time `json:"startedAt,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	pid, _ := s.playerID(w, r)
	sess, err := s.engine.State(r.Context(), pid)
	if errors.Is(err, game.ErrSessionNotFound) {
		_ = json.NewEncoder(w).Encode(stateRes{})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("player", pid).Msg("load state")
		writeError(w, http.StatusInternalServerError, "state_failed")
		return
	}
	_ = json.NewEncoder(w).Encode(stateRes{
		Active:    sess.Active,
		LastCity:  sess.LastCity,
		Letter:    letter(sess.RequiredLetter),
		Score:     sess.Score,
		Chain:     s.displayChain(sess.Used),
		StartedAt: &sess.StartedAt,
	})
}

// displayChain maps canonical chain entries back to catalog display names.
// An entry missing from the current catalog is shown as stored.
func (s *Server) displayChain(used []string) []string {
	cat := s.engine.Catalog()
	return lo.Map(used, func(c string, _ int) string {
		if e, ok := cat.Lookup(c); ok {
			return e.Name
		}
		return c
	})
}

// -----------------------------------------------------------------------------
// /cities/history, /cities/leaderboard

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	pid, _ := s.playerID(w, r)
	rows, err := s.results.ForPlayer(r.Context(), pid, limitParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if rows == nil {
		rows = []results.Result{}
	}
	_ = json.NewEncoder(w).Encode(rows)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := s.results.Leaderboard(r.Context(), limitParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}

// limitParam parses ?limit=, capped at 100; 0 means the store default.
func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 0
	}
	return min(n, 100)
}

// recordFinish writes a results row and, for signed-in players, bumps the
// user's counters in the same transaction. Failures are logged, not returned:
// the game itself is already settled.
func (s *Server) recordFinish(ctx context.Context, pid string, me *authUser, outcome string, score int, elapsed time.Duration) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin results tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if err := results.InsertWith(ctx, tx, results.Result{
		PlayerID:  pid,
		Outcome:   outcome,
		Score:     score,
		ElapsedMs: elapsed.Milliseconds(),
	}); err != nil {
		log.Warn().Err(err).Str("player", pid).Msg("insert result")
		return
	}
	if me != nil {
		if err := bumpStats(ctx, tx, me.ID, outcome == results.OutcomeWon, score); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit results tx")
	}
}
