package stream

import (
	"time"

	"courtside-live/models"
)

// EventName tags every broadcast event. The set is closed; payload shapes
// are fixed per tag and only serialized at the wire boundary.
type EventName string

const (
	EventBracketUpdate    EventName = "BRACKET_UPDATE"
	EventMatchComplete    EventName = "MATCH_COMPLETE"
	EventMatchStart       EventName = "MATCH_START"
	EventMatchUpdate      EventName = "MATCH_UPDATE"
	EventCourtUpdate      EventName = "COURT_UPDATE"
	EventTournamentUpdate EventName = "TOURNAMENT_UPDATE"
)

// Stream id keys. Every event targets exactly one stream.
func BracketStreamID(tournamentID string) string    { return "bracket:" + tournamentID }
func CourtStreamID(courtID string) string           { return "court:" + courtID }
func TournamentStreamID(tournamentID string) string { return "tournament:" + tournamentID }

type Event struct {
	Name     EventName
	StreamID string
	Payload  any
	At       time.Time
}

// MatchPayload carries the full match for MATCH_START, MATCH_UPDATE and
// MATCH_COMPLETE.
type MatchPayload struct {
	Match  *models.Match `json:"match"`
	Reason string        `json:"reason,omitempty"`
}

// BracketUpdatePayload carries the affected subtree of one completion: the
// completed match plus every match its cascade touched.
type BracketUpdatePayload struct {
	TournamentID string          `json:"tournament_id"`
	Matches      []*models.Match `json:"matches"`
}

type CourtUpdatePayload struct {
	CourtID string        `json:"court_id"`
	Match   *models.Match `json:"match"`
}

type TournamentUpdatePayload struct {
	TournamentID string                  `json:"tournament_id"`
	Status       models.TournamentStatus `json:"status"`
	WinnerID     *string                 `json:"winner_id,omitempty"`
	Winner       *models.Team            `json:"winner,omitempty"`
	Message      string                  `json:"message,omitempty"`
}

// Envelope is the wire record delivered to a connection. ID increases
// monotonically per connection.
type Envelope struct {
	EventName EventName `json:"eventName"`
	Data      any       `json:"data"`
	ID        uint64    `json:"id"`
}
