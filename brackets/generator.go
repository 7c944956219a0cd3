package brackets

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"courtside-live/models"

	"github.com/google/uuid"
)

var (
	ErrInvalidTeamCount  = errors.New("at least two teams are required to build a bracket")
	ErrUnsupportedFormat = errors.New("unsupported tournament format")
)

type GenerateParams struct {
	Tournament *models.Tournament
	Teams      []*models.Team
}

// Topology is the full match graph for one tournament: matches plus the
// advancement edges that route winners and losers into later slots.
type Topology struct {
	Matches []*models.Match
	Edges   []models.BracketEdge
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) (*Topology, error)

	Name() string
}

// ForFormat returns the generator for a tournament format.
func ForFormat(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	case models.FormatSwiss:
		return NewSwissGenerator(), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Match lookups by id.
func (t *Topology) MatchByID(id string) *models.Match {
	for _, m := range t.Matches {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// seedOrder returns bracket positions for a power-of-two field so that the
// top seeds cannot meet before the late rounds: position i holds seed
// order[i], pairs always sum to size+1.
func seedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		next := make([]int, 0, len(order)*2)
		sum := len(order)*2 + 1
		for _, s := range order {
			next = append(next, s, sum-s)
		}
		order = next
	}
	return order
}

// sortBySeed returns a copy of teams ordered by seed, then name for teams
// sharing a seed.
func sortBySeed(teams []*models.Team) []*models.Team {
	sorted := make([]*models.Team, len(teams))
	copy(sorted, teams)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Seed != sorted[j].Seed {
			return sorted[i].Seed < sorted[j].Seed
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

func roundLabel(round, totalRounds int) string {
	switch totalRounds - round {
	case 0:
		return "Final"
	case 1:
		return "Semifinal"
	case 2:
		return "Quarterfinal"
	default:
		return fmt.Sprintf("Round %d", round)
	}
}

func newMatch(tournamentID string, round int, label string, order int, section models.BracketSection) *models.Match {
	return &models.Match{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		Round:        round,
		RoundLabel:   label,
		OrderInRound: order,
		Bracket:      section,
		Status:       models.MatchStatusScheduled,
	}
}

func newEdge(from *models.Match, outcome models.EdgeOutcome, to *models.Match, slot int) models.BracketEdge {
	return models.BracketEdge{
		ID:          uuid.NewString(),
		FromMatchID: from.ID,
		Outcome:     outcome,
		ToMatchID:   to.ID,
		ToSlot:      slot,
	}
}

func sortTopology(t *Topology) {
	sectionRank := map[models.BracketSection]int{
		models.BracketWinner:      0,
		models.BracketLoser:       1,
		models.BracketConsolation: 2,
	}
	sort.SliceStable(t.Matches, func(i, j int) bool {
		a, b := t.Matches[i], t.Matches[j]
		if a.Bracket != b.Bracket {
			return sectionRank[a.Bracket] < sectionRank[b.Bracket]
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.OrderInRound < b.OrderInRound
	})
}
