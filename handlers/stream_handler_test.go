package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtside-live/models"
	"courtside-live/services"
	"courtside-live/stream"
)

// stubTournamentService answers existence checks from a fixed set; every
// other method of the interface is unused by the stream handler.
type stubTournamentService struct {
	services.TournamentService
	known map[string]bool
}

func (s *stubTournamentService) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	if !s.known[id] {
		return nil, services.ErrTournamentNotFound
	}
	return &models.Tournament{ID: id, Status: models.TournamentStatusActive}, nil
}

type stubCourtService struct {
	services.CourtService
	known map[string]bool
}

func (s *stubCourtService) GetByID(ctx context.Context, id string) (*models.Court, error) {
	if !s.known[id] {
		return nil, services.ErrCourtNotFound
	}
	return &models.Court{ID: id, Name: "Court"}, nil
}

func newStreamTestServer(t *testing.T, hub *stream.Hub) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewStreamHandler(hub,
		&stubTournamentService{known: map[string]bool{"t1": true}},
		&stubCourtService{known: map[string]bool{"c1": true}},
		logger)

	router := chi.NewRouter()
	router.Get("/ws/brackets/{tournamentID}", handler.ServeBracketStream)
	router.Get("/ws/courts/{courtID}", handler.ServeCourtStream)
	router.Get("/ws/tournaments/{tournamentID}", handler.ServeTournamentStream)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestStreamHandlerDeliversEnvelopes(t *testing.T) {
	hub := stream.NewHub(16, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := newStreamTestServer(t, hub)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/brackets/t1"), nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	// Give the write pump a moment to attach before publishing.
	require.Eventually(t, func() bool {
		return hub.SubscriberCount(stream.BracketStreamID("t1")) == 1
	}, time.Second, 10*time.Millisecond)

	match := &models.Match{ID: "m1", TournamentID: "t1", Status: models.MatchStatusCompleted}
	hub.Publish(stream.Event{
		Name:     stream.EventMatchComplete,
		StreamID: stream.BracketStreamID("t1"),
		Payload:  stream.MatchPayload{Match: match},
	})
	hub.Publish(stream.Event{
		Name:     stream.EventBracketUpdate,
		StreamID: stream.BracketStreamID("t1"),
		Payload:  stream.BracketUpdatePayload{TournamentID: "t1", Matches: []*models.Match{match}},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first struct {
		EventName string          `json:"eventName"`
		Data      json.RawMessage `json:"data"`
		ID        uint64          `json:"id"`
	}
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, string(stream.EventMatchComplete), first.EventName)
	assert.Equal(t, uint64(1), first.ID)

	var payload stream.MatchPayload
	require.NoError(t, json.Unmarshal(first.Data, &payload))
	require.NotNil(t, payload.Match)
	assert.Equal(t, "m1", payload.Match.ID)

	var second struct {
		EventName string `json:"eventName"`
		ID        uint64 `json:"id"`
	}
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, string(stream.EventBracketUpdate), second.EventName)
	assert.Equal(t, uint64(2), second.ID)
}

func TestStreamHandlerRejectsUnknownResource(t *testing.T) {
	hub := stream.NewHub(16, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := newStreamTestServer(t, hub)

	for _, path := range []string{"/ws/brackets/ghost", "/ws/tournaments/ghost", "/ws/courts/ghost"} {
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, path), nil)
		require.Error(t, err, path)
		require.Nil(t, conn)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		resp.Body.Close()
	}

	assert.Equal(t, 0, hub.SubscriberCount(stream.BracketStreamID("ghost")))
}

func TestStreamHandlerDisconnectCleansUp(t *testing.T) {
	hub := stream.NewHub(16, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := newStreamTestServer(t, hub)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/courts/c1"), nil)
	require.NoError(t, err)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(stream.CourtStreamID("c1")) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return hub.SubscriberCount(stream.CourtStreamID("c1")) == 0
	}, time.Second, 10*time.Millisecond)
}
