package models

import "time"

// Team is tournament-scoped. Seed 1 is the strongest entry; seeds drive
// first-round placement and swiss tie-breaks. Players holds member
// identifiers in roster order.
type Team struct {
	ID           string    `json:"id" db:"id"`
	TournamentID string    `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	Seed         int       `json:"seed" db:"seed"`
	Players      []string  `json:"players" db:"players"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
