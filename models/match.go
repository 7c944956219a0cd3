package models

import (
	"encoding/json"
	"time"
)

// MatchStatus mirrors the match_status ENUM in the database. Transitions
// only ever move forward: scheduled -> active -> completed, or any
// non-terminal status -> cancelled.
type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusActive    MatchStatus = "active"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCancelled MatchStatus = "cancelled"
)

// BracketSection places a match inside the drawn bracket.
type BracketSection string

const (
	BracketWinner      BracketSection = "winner"
	BracketLoser       BracketSection = "loser"
	BracketConsolation BracketSection = "consolation"
)

// Score holds per-slot running totals. A match is won the moment one slot
// reaches GamePoint; equal totals are never valid at that point.
type Score struct {
	Slot1 int `json:"slot1"`
	Slot2 int `json:"slot2"`
}

// Final reports whether the score is terminal for a match.
func (s Score) Final() bool {
	return (s.Slot1 >= GamePoint || s.Slot2 >= GamePoint) && s.Slot1 != s.Slot2
}

// End is one scoring end of a match. Detail is opaque to the engine; only
// count and order matter here.
type End struct {
	Number int             `json:"number"`
	Detail json.RawMessage `json:"detail,omitempty"`
}

type Match struct {
	ID           string         `json:"id" db:"id"`
	TournamentID string         `json:"tournament_id" db:"tournament_id"`
	Round        int            `json:"round" db:"round"`
	RoundLabel   string         `json:"round_label" db:"round_label"`
	OrderInRound int            `json:"order_in_round" db:"order_in_round"`
	Bracket      BracketSection `json:"bracket" db:"bracket"`
	Slot1TeamID  *string        `json:"slot1_team_id,omitempty" db:"slot1_team_id"`
	Slot2TeamID  *string        `json:"slot2_team_id,omitempty" db:"slot2_team_id"`
	Score        *Score         `json:"score,omitempty" db:"score"`
	Status       MatchStatus    `json:"status" db:"status"`
	WinnerID     *string        `json:"winner_id,omitempty" db:"winner_id"`
	CourtID      *string        `json:"court_id,omitempty" db:"court_id"`
	ScheduledAt  *time.Time     `json:"scheduled_at,omitempty" db:"scheduled_at"`
	Ends         []End          `json:"ends,omitempty" db:"ends"`

	// Bye marks a structural match created only to carry an automatic
	// advancement. Bye matches are never played and never emit
	// MATCH_COMPLETE.
	Bye bool `json:"bye,omitempty" db:"bye"`
}

// Terminal reports whether the match can no longer change.
func (m *Match) Terminal() bool {
	return m.Status == MatchStatusCompleted || m.Status == MatchStatusCancelled
}

// Ready reports whether both slots are filled, via seeding, a bye, or edge
// resolution.
func (m *Match) Ready() bool {
	return m.Slot1TeamID != nil && m.Slot2TeamID != nil
}

// SlotTeam returns the team occupying slot 1 or 2, nil when pending.
func (m *Match) SlotTeam(slot int) *string {
	if slot == 1 {
		return m.Slot1TeamID
	}
	return m.Slot2TeamID
}

// LoserID returns the losing team of a completed match, nil for byes and
// matches that are not completed.
func (m *Match) LoserID() *string {
	if m.Status != MatchStatusCompleted || m.WinnerID == nil {
		return nil
	}
	if m.Slot1TeamID != nil && *m.Slot1TeamID != *m.WinnerID {
		return m.Slot1TeamID
	}
	if m.Slot2TeamID != nil && *m.Slot2TeamID != *m.WinnerID {
		return m.Slot2TeamID
	}
	return nil
}
