package brackets

import (
	"context"
	"fmt"
	"math"

	"courtside-live/models"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// Generate builds a seeded knockout tree. The field is padded to a power of
// two; every first-round pairing with a missing opponent becomes a bye that
// auto-completes, so later rounds fill uniformly through winner edges.
// Fields of four or more also get a consolation match fed by the semifinal
// losers.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) (*Topology, error) {
	teams := sortBySeed(params.Teams)
	n := len(teams)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTeamCount, n)
	}

	rounds := int(math.Ceil(math.Log2(float64(n))))
	size := 1 << uint(rounds)
	order := seedOrder(size)

	topo := &Topology{}
	tid := params.Tournament.ID

	// One slice per round, filled front to back so edges can point at the
	// next round while it is built.
	byRound := make([][]*models.Match, rounds+1)
	for r := 1; r <= rounds; r++ {
		count := size >> uint(r)
		byRound[r] = make([]*models.Match, count)
		for i := 0; i < count; i++ {
			m := newMatch(tid, r, roundLabel(r, rounds), i+1, models.BracketWinner)
			byRound[r][i] = m
			topo.Matches = append(topo.Matches, m)
		}
	}

	for i := 0; i < size; i += 2 {
		m := byRound[1][i/2]
		if seed := order[i]; seed <= n {
			m.Slot1TeamID = &teams[seed-1].ID
		}
		if seed := order[i+1]; seed <= n {
			m.Slot2TeamID = &teams[seed-1].ID
		}
	}

	for r := 1; r < rounds; r++ {
		for i, m := range byRound[r] {
			topo.Edges = append(topo.Edges, newEdge(m, models.OutcomeWinner, byRound[r+1][i/2], i%2+1))
		}
	}

	if rounds >= 2 {
		third := newMatch(tid, rounds, "Third Place", 1, models.BracketConsolation)
		topo.Matches = append(topo.Matches, third)
		for i, semi := range byRound[rounds-1] {
			topo.Edges = append(topo.Edges, newEdge(semi, models.OutcomeLoser, third, i+1))
		}
	}

	NewIndex(topo.Matches, topo.Edges).Normalize()
	sortTopology(topo)
	return topo, nil
}
