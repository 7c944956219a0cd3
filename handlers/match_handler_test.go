package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtside-live/models"
	"courtside-live/services"
)

type stubProgressionService struct {
	submitErr   error
	lastScore   models.Score
	lastEnds    []models.End
	lastCourtID *string
	lastReason  string
}

func (s *stubProgressionService) SubmitResult(ctx context.Context, matchID string, score models.Score, ends []models.End) (*models.Match, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.lastScore = score
	s.lastEnds = ends
	winner := "team-1"
	return &models.Match{ID: matchID, Status: models.MatchStatusCompleted, WinnerID: &winner}, nil
}

func (s *stubProgressionService) StartMatch(ctx context.Context, matchID string, courtID *string) (*models.Match, error) {
	s.lastCourtID = courtID
	return &models.Match{ID: matchID, Status: models.MatchStatusActive, CourtID: courtID}, nil
}

func (s *stubProgressionService) CancelMatch(ctx context.Context, matchID string, reason string) (*models.Match, error) {
	s.lastReason = reason
	return &models.Match{ID: matchID, Status: models.MatchStatusCancelled}, nil
}

func newMatchTestRouter(svc services.ProgressionService) *chi.Mux {
	handler := NewMatchHandler(svc)
	router := chi.NewRouter()
	router.Post("/matches/{matchID}/result", handler.SubmitResultHandler)
	router.Post("/matches/{matchID}/start", handler.StartHandler)
	router.Post("/matches/{matchID}/cancel", handler.CancelHandler)
	return router
}

func TestSubmitResultHandler(t *testing.T) {
	stub := &stubProgressionService{}
	router := newMatchTestRouter(stub)

	body := `{"score":{"slot1":13,"slot2":7},"ends":[{"number":1},{"number":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/matches/m1/result", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Score{Slot1: 13, Slot2: 7}, stub.lastScore)
	assert.Len(t, stub.lastEnds, 2)

	var resp struct {
		Match models.Match `json:"match"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "m1", resp.Match.ID)
	assert.Equal(t, models.MatchStatusCompleted, resp.Match.Status)
}

func TestSubmitResultHandlerRejectsBadJSON(t *testing.T) {
	router := newMatchTestRouter(&stubProgressionService{})

	req := httptest.NewRequest(http.MethodPost, "/matches/m1/result", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitResultHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{services.ErrMatchNotFound, http.StatusNotFound},
		{services.ErrInvalidStateTransition, http.StatusConflict},
		{services.ErrMatchNotReady, http.StatusBadRequest},
		{services.ErrInvalidScore, http.StatusBadRequest},
	}
	for _, tc := range cases {
		router := newMatchTestRouter(&stubProgressionService{submitErr: tc.err})

		req := httptest.NewRequest(http.MethodPost, "/matches/m1/result",
			strings.NewReader(`{"score":{"slot1":13,"slot2":7}}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}
}

func TestStartHandlerWithoutBody(t *testing.T) {
	router := newMatchTestRouter(&stubProgressionService{})

	req := httptest.NewRequest(http.MethodPost, "/matches/m1/start", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Match models.Match `json:"match"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.MatchStatusActive, resp.Match.Status)
	assert.Nil(t, resp.Match.CourtID)
}

func TestStartHandlerChunkedBodyKeepsCourt(t *testing.T) {
	stub := &stubProgressionService{}
	router := newMatchTestRouter(stub)

	// io.MultiReader hides the length the way a chunked upload does.
	body := io.MultiReader(strings.NewReader(`{"court_id":"court-9"}`))
	req := httptest.NewRequest(http.MethodPost, "/matches/m1/start", body)
	require.Equal(t, int64(-1), req.ContentLength)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.lastCourtID)
	assert.Equal(t, "court-9", *stub.lastCourtID)
}

func TestCancelHandlerChunkedBodyKeepsReason(t *testing.T) {
	stub := &stubProgressionService{}
	router := newMatchTestRouter(stub)

	body := io.MultiReader(strings.NewReader(`{"reason":"rain"}`))
	req := httptest.NewRequest(http.MethodPost, "/matches/m1/cancel", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rain", stub.lastReason)
}
