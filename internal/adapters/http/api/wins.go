package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/lottoheat/internal/domain/types"
)

// handleSubmitWin handles POST /wins.
func (s *Server) handleSubmitWin(w http.ResponseWriter, r *http.Request) {
	var sub types.WinSubmission
	if err := decodeBody(w, r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	rec, err := s.svc.SubmitWin(r.Context(), sub)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

type voteRequest struct {
	Up *bool `json:"up"`
}

// handleVote handles POST /wins/{winID}/votes with {"up": bool}.
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.Up == nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing up", ErrBadRequest))
		return
	}
	rec, err := s.svc.Vote(r.Context(), chi.URLParam(r, "winID"), *req.Up)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
