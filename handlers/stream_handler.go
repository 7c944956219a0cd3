package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"courtside-live/services"
	"courtside-live/stream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering is left to the deployment in front of us.
		return true
	},
}

// StreamHandler upgrades HTTP requests to WebSocket subscriptions. Each
// connection is bound to exactly one stream; existence of the underlying
// resource is checked before the upgrade so missing ids fail with a plain
// 404 instead of a broken socket.
type StreamHandler struct {
	hub               *stream.Hub
	tournamentService services.TournamentService
	courtService      services.CourtService
	logger            *slog.Logger
}

func NewStreamHandler(hub *stream.Hub, ts services.TournamentService, cs services.CourtService, logger *slog.Logger) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{
		hub:               hub,
		tournamentService: ts,
		courtService:      cs,
		logger:            logger,
	}
}

// ServeBracketStream handles GET /ws/brackets/{tournamentID}
func (h *StreamHandler) ServeBracketStream(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if _, err := h.tournamentService.GetByID(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.serve(w, r, stream.BracketStreamID(tournamentID))
}

// ServeCourtStream handles GET /ws/courts/{courtID}
func (h *StreamHandler) ServeCourtStream(w http.ResponseWriter, r *http.Request) {
	courtID := chi.URLParam(r, "courtID")
	if _, err := h.courtService.GetByID(r.Context(), courtID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.serve(w, r, stream.CourtStreamID(courtID))
}

// ServeTournamentStream handles GET /ws/tournaments/{tournamentID}
func (h *StreamHandler) ServeTournamentStream(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if _, err := h.tournamentService.GetByID(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.serve(w, r, stream.TournamentStreamID(tournamentID))
}

func (h *StreamHandler) serve(w http.ResponseWriter, r *http.Request, streamID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed",
			slog.String("stream_id", streamID),
			slog.Any("error", err))
		return
	}

	sub := h.hub.Subscribe(streamID)
	client := stream.NewClient(conn, sub, h.logger)

	h.logger.Info("stream subscriber connected",
		slog.String("stream_id", streamID),
		slog.String("subscriber_id", sub.ID().String()))

	go client.WritePump()
	go client.ReadPump()
}
