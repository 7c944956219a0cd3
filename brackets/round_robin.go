package brackets

import (
	"context"
	"fmt"

	"courtside-live/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate schedules every pairing exactly once using the circle method:
// one team stays fixed while the rest rotate, which packs the matches into
// n-1 rounds (n for an odd field, where the team paired with the phantom
// slot sits the round out) with no team playing twice in a round.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) (*Topology, error) {
	teams := sortBySeed(params.Teams)
	n := len(teams)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTeamCount, n)
	}

	// Odd field: pad with a phantom entry; pairings against it are skipped.
	ring := make([]*models.Team, len(teams))
	copy(ring, teams)
	if len(ring)%2 == 1 {
		ring = append(ring, nil)
	}
	rounds := len(ring) - 1
	half := len(ring) / 2

	topo := &Topology{}
	tid := params.Tournament.ID

	for r := 1; r <= rounds; r++ {
		label := fmt.Sprintf("Round %d", r)
		orderInRound := 0
		for i := 0; i < half; i++ {
			a := ring[i]
			b := ring[len(ring)-1-i]
			if a == nil || b == nil {
				continue
			}
			orderInRound++
			m := newMatch(tid, r, label, orderInRound, models.BracketWinner)
			m.Slot1TeamID = &a.ID
			m.Slot2TeamID = &b.ID
			topo.Matches = append(topo.Matches, m)
		}

		// Rotate everything but the first entry.
		last := ring[len(ring)-1]
		copy(ring[2:], ring[1:len(ring)-1])
		ring[1] = last
	}

	sortTopology(topo)
	return topo, nil
}
