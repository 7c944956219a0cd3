package brackets

import (
	"context"
	"fmt"
	"math"

	"courtside-live/models"
)

const (
	GrandFinalLabel      = "Grand Final"
	GrandFinalResetLabel = "Grand Final Reset"
)

type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() Generator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) Name() string {
	return "DoubleElimination"
}

// Generate builds the winner bracket exactly like single elimination, then
// a loser bracket with 2*(k-1) rounds for a padded field of 2^k. Odd loser
// rounds pair survivors of the previous loser round; even rounds take in
// the winner-bracket losers of the matching round, alternating a reversed
// and a half-shifted order so first loser-bracket meetings are never
// immediate rematches. A single grand final pits both bracket champions;
// the reset match only exists once the loser-bracket champion earns it.
func (g *DoubleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) (*Topology, error) {
	teams := sortBySeed(params.Teams)
	n := len(teams)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTeamCount, n)
	}

	k := int(math.Ceil(math.Log2(float64(n))))
	size := 1 << uint(k)
	order := seedOrder(size)

	topo := &Topology{}
	tid := params.Tournament.ID

	wb := make([][]*models.Match, k+1)
	for r := 1; r <= k; r++ {
		count := size >> uint(r)
		wb[r] = make([]*models.Match, count)
		for i := 0; i < count; i++ {
			m := newMatch(tid, r, roundLabel(r, k), i+1, models.BracketWinner)
			wb[r][i] = m
			topo.Matches = append(topo.Matches, m)
		}
	}
	for i := 0; i < size; i += 2 {
		m := wb[1][i/2]
		if seed := order[i]; seed <= n {
			m.Slot1TeamID = &teams[seed-1].ID
		}
		if seed := order[i+1]; seed <= n {
			m.Slot2TeamID = &teams[seed-1].ID
		}
	}
	for r := 1; r < k; r++ {
		for i, m := range wb[r] {
			topo.Edges = append(topo.Edges, newEdge(m, models.OutcomeWinner, wb[r+1][i/2], i%2+1))
		}
	}

	// Loser bracket: rounds 2m-1 and 2m each hold size/2^(m+1) matches.
	lb := make([][]*models.Match, 2*(k-1)+1)
	for m := 1; m <= k-1; m++ {
		count := size >> uint(m+1)
		for _, lr := range []int{2*m - 1, 2 * m} {
			lb[lr] = make([]*models.Match, count)
			for i := 0; i < count; i++ {
				lm := newMatch(tid, lr, fmt.Sprintf("LB Round %d", lr), i+1, models.BracketLoser)
				lb[lr][i] = lm
				topo.Matches = append(topo.Matches, lm)
			}
		}
	}

	for m := 1; m <= k-1; m++ {
		count := size >> uint(m+1)
		if m == 1 {
			// First-round losers drop in pairs, adjacent matches together.
			for i := 0; i < count; i++ {
				topo.Edges = append(topo.Edges, newEdge(wb[1][2*i], models.OutcomeLoser, lb[1][i], 1))
				topo.Edges = append(topo.Edges, newEdge(wb[1][2*i+1], models.OutcomeLoser, lb[1][i], 2))
			}
		} else {
			for i := 0; i < count; i++ {
				topo.Edges = append(topo.Edges, newEdge(lb[2*m-2][2*i], models.OutcomeWinner, lb[2*m-1][i], 1))
				topo.Edges = append(topo.Edges, newEdge(lb[2*m-2][2*i+1], models.OutcomeWinner, lb[2*m-1][i], 2))
			}
		}
		for i := 0; i < count; i++ {
			topo.Edges = append(topo.Edges, newEdge(lb[2*m-1][i], models.OutcomeWinner, lb[2*m][i], 1))
			topo.Edges = append(topo.Edges, newEdge(wb[m+1][intakeSlot(m, i, count)], models.OutcomeLoser, lb[2*m][i], 2))
		}
	}

	grand := newMatch(tid, k+1, GrandFinalLabel, 1, models.BracketWinner)
	topo.Matches = append(topo.Matches, grand)
	topo.Edges = append(topo.Edges, newEdge(wb[k][0], models.OutcomeWinner, grand, 1))
	if k >= 2 {
		lbFinal := lb[2*(k-1)][0]
		topo.Edges = append(topo.Edges, newEdge(lbFinal, models.OutcomeWinner, grand, 2))
	} else {
		topo.Edges = append(topo.Edges, newEdge(wb[1][0], models.OutcomeLoser, grand, 2))
	}

	NewIndex(topo.Matches, topo.Edges).Normalize()
	sortTopology(topo)
	return topo, nil
}

// GrandFinalReset builds the deciding match after the loser-bracket
// champion wins the first grand final. Both participants re-enter with one
// defeat each; the winner takes the tournament outright.
func GrandFinalReset(tournamentID string, grandFinal *models.Match) *models.Match {
	m := newMatch(tournamentID, grandFinal.Round+1, GrandFinalResetLabel, 1, models.BracketWinner)
	m.Slot1TeamID = grandFinal.Slot1TeamID
	m.Slot2TeamID = grandFinal.Slot2TeamID
	return m
}

// intakeSlot maps loser-bracket match i of an even round to the
// winner-bracket match whose loser drops into it: odd intakes reverse the
// order, even intakes shift it by half.
func intakeSlot(m, i, count int) int {
	if count == 1 {
		return 0
	}
	if m%2 == 1 {
		return count - 1 - i
	}
	return (i + count/2) % count
}
