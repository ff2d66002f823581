package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/shopspring/decimal"
)

type replaceGamesResponse struct {
	Games int `json:"games"`
}

// handleReplaceGames handles PUT /games. The body replaces the whole snapshot.
func (s *Server) handleReplaceGames(w http.ResponseWriter, r *http.Request) {
	var games []model.Game
	if err := decodeBody(w, r, &games); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := s.svc.ReplaceGames(r.Context(), games); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replaceGamesResponse{Games: len(games)})
}

// handleRecommendations handles GET /recommendations?budget=X.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("budget")
	budget, err := decimal.NewFromString(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: budget %q", ErrBadRequest, raw))
		return
	}
	recs, err := s.svc.Recommend(r.Context(), budget)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleAnalyze handles GET /games/{gameID}/analysis?tickets=N[&bankroll=X].
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tickets := int64(1)
	if v := q.Get("tickets"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: tickets must be a positive integer", ErrBadRequest))
			return
		}
		tickets = n
	}

	bankroll := decimal.Zero
	if v := q.Get("bankroll"); v != "" {
		b, err := decimal.NewFromString(v)
		if err != nil || b.IsNegative() {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: bankroll %q", ErrBadRequest, v))
			return
		}
		bankroll = b
	}

	analysis, err := s.svc.Analyze(r.Context(), chi.URLParam(r, "gameID"), tickets, bankroll)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}
