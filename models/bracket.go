package models

// EdgeOutcome selects which side of a completed match an edge carries.
type EdgeOutcome string

const (
	OutcomeWinner EdgeOutcome = "winner"
	OutcomeLoser  EdgeOutcome = "loser"
)

// BracketEdge routes one outcome of a source match into one destination
// slot. A slot is filled at most once, by seeding, a bye, or exactly one
// resolved edge.
type BracketEdge struct {
	ID          string      `json:"id" db:"id"`
	FromMatchID string      `json:"from_match_id" db:"from_match_id"`
	Outcome     EdgeOutcome `json:"outcome" db:"outcome"`
	ToMatchID   string      `json:"to_match_id" db:"to_match_id"`
	ToSlot      int         `json:"to_slot" db:"to_slot"`
}
