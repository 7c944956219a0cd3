package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"courtside-live/models"
	"courtside-live/services"
)

type MatchHandler struct {
	progressionService services.ProgressionService
}

func NewMatchHandler(ps services.ProgressionService) *MatchHandler {
	return &MatchHandler{progressionService: ps}
}

// SubmitResultHandler handles POST /matches/{matchID}/result
func (h *MatchHandler) SubmitResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var input struct {
		Score models.Score `json:"score"`
		Ends  []models.End `json:"ends"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.progressionService.SubmitResult(r.Context(), matchID, input.Score, input.Ends)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartHandler handles POST /matches/{matchID}/start
func (h *MatchHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	// The body is optional; a chunked request reports no content length, so
	// decode and tolerate the empty case instead of checking the header.
	var input struct {
		CourtID *string `json:"court_id"`
	}
	if err := readJSON(w, r, &input); err != nil && !errors.Is(err, errBodyEmpty) {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.progressionService.StartMatch(r.Context(), matchID, input.CourtID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CancelHandler handles POST /matches/{matchID}/cancel
func (h *MatchHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var input struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil && !errors.Is(err, errBodyEmpty) {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.progressionService.CancelMatch(r.Context(), matchID, input.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
