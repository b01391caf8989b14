// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily packing puzzle, mounted under /api:
//   - GET  /api/items → the item catalog the client draws from
//   - POST /api/guess → evaluate a 3×3 submission against today's solution
//
// Today's solution is resolved lazily: the first guess of a date generates and
// stores it, later guesses reuse it.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pouch/internal/game"
)

const maxGuessBody = 64 << 10

// guessReq is the POST /api/guess payload. Empty slots are null.
type guessReq struct {
	Grid []*game.SubmittedCell `json:"grid"`
}

// mountPuzzle registers all /api routes.
func (s *Server) mountPuzzle(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/items", s.handleItems)
		r.Post("/guess", s.handleGuess)
	})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListItems(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list items")
		http.Error(w, `{"error":"store_error"}`, http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []game.Item{}
	}
	_ = json.NewEncoder(w).Encode(items)
}

// handleGuess rejects malformed submissions with a bodiless 400; the grid must
// hold exactly nine entries.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGuessBody)).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if len(req.Grid) != game.Cells {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	date := s.today()
	sol, err := s.resolver.Resolve(r.Context(), date)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("resolve solution")
		http.Error(w, `{"error":"store_error"}`, http.StatusInternalServerError)
		return
	}

	res, err := game.Evaluate(req.Grid, sol)
	if errors.Is(err, game.ErrInvalidSubmission) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("evaluate guess")
		http.Error(w, `{"error":"evaluate_failed"}`, http.StatusInternalServerError)
		return
	}

	log.Debug().
		Str("date", date).
		Bool("correct", res.Correct).
		Int("matched", len(res.CorrectCells)).
		Msg("guess evaluated")
	_ = json.NewEncoder(w).Encode(res)
}
