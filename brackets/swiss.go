package brackets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"courtside-live/models"
)

// ErrRoundIncomplete guards on-demand swiss pairing: the next round cannot
// exist until every match of the previous rounds is terminal.
var ErrRoundIncomplete = errors.New("previous swiss round is not finished")

type SwissGenerator struct{}

func NewSwissGenerator() Generator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) Name() string {
	return "Swiss"
}

// SwissRounds is the number of rounds a swiss field of n teams plays.
func SwissRounds(n int) int {
	return int(math.Ceil(math.Log2(float64(n))))
}

// Generate builds only round one; later rounds are paired on demand from
// the running standings. Round one pairs the top half against the bottom
// half by seed. An odd field gives the lowest seed a bye.
func (g *SwissGenerator) Generate(ctx context.Context, params GenerateParams) (*Topology, error) {
	teams := sortBySeed(params.Teams)
	n := len(teams)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTeamCount, n)
	}

	topo := &Topology{}
	tid := params.Tournament.ID

	paired := teams
	if n%2 == 1 {
		bye := newMatch(tid, 1, "Round 1", (n+1)/2, models.BracketWinner)
		bye.Slot1TeamID = &teams[n-1].ID
		bye.Bye = true
		bye.Status = models.MatchStatusCompleted
		bye.WinnerID = &teams[n-1].ID
		topo.Matches = append(topo.Matches, bye)
		paired = teams[:n-1]
	}

	half := len(paired) / 2
	for i := 0; i < half; i++ {
		m := newMatch(tid, 1, "Round 1", i+1, models.BracketWinner)
		m.Slot1TeamID = &paired[i].ID
		m.Slot2TeamID = &paired[i+half].ID
		topo.Matches = append(topo.Matches, m)
	}

	sortTopology(topo)
	return topo, nil
}

type swissStanding struct {
	team   *models.Team
	wins   int
	hadBye bool
}

// NextSwissRound pairs round number round from the finished history: teams
// sorted by running score are matched against the closest-scored opponent
// they have not yet played, ties broken by seed. Returns nil once the
// schedule of SwissRounds rounds is exhausted.
func NextSwissRound(tournamentID string, teams []*models.Team, played []*models.Match, round int) ([]*models.Match, error) {
	if round > SwissRounds(len(teams)) {
		return nil, nil
	}
	for _, m := range played {
		if m.Round < round && !m.Terminal() {
			return nil, fmt.Errorf("%w: match %s in round %d", ErrRoundIncomplete, m.ID, m.Round)
		}
	}

	standings := make([]*swissStanding, 0, len(teams))
	byTeam := make(map[string]*swissStanding, len(teams))
	for _, t := range sortBySeed(teams) {
		s := &swissStanding{team: t}
		standings = append(standings, s)
		byTeam[t.ID] = s
	}

	met := make(map[string]bool)
	for _, m := range played {
		if m.Status != models.MatchStatusCompleted {
			continue
		}
		if m.WinnerID != nil {
			if s := byTeam[*m.WinnerID]; s != nil {
				s.wins++
			}
		}
		if m.Slot1TeamID != nil && m.Slot2TeamID != nil {
			met[pairKey(*m.Slot1TeamID, *m.Slot2TeamID)] = true
		} else if m.Bye && m.WinnerID != nil {
			if s := byTeam[*m.WinnerID]; s != nil {
				s.hadBye = true
			}
		}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].wins != standings[j].wins {
			return standings[i].wins > standings[j].wins
		}
		return standings[i].team.Seed < standings[j].team.Seed
	})

	var matches []*models.Match
	label := fmt.Sprintf("Round %d", round)
	orderInRound := 0

	pool := standings
	if len(pool)%2 == 1 {
		// Bye goes to the lowest-ranked team that has not had one yet.
		byeIdx := len(pool) - 1
		for i := len(pool) - 1; i >= 0; i-- {
			if !pool[i].hadBye {
				byeIdx = i
				break
			}
		}
		byeTeam := pool[byeIdx].team
		pool = append(append([]*swissStanding{}, pool[:byeIdx]...), pool[byeIdx+1:]...)

		bye := newMatch(tournamentID, round, label, (len(standings)+1)/2, models.BracketWinner)
		bye.Slot1TeamID = &byeTeam.ID
		bye.Bye = true
		bye.Status = models.MatchStatusCompleted
		bye.WinnerID = &byeTeam.ID
		matches = append(matches, bye)
	}

	used := make([]bool, len(pool))
	for i := range pool {
		if used[i] {
			continue
		}
		used[i] = true
		opponent := -1
		for j := i + 1; j < len(pool); j++ {
			if !used[j] && !met[pairKey(pool[i].team.ID, pool[j].team.ID)] {
				opponent = j
				break
			}
		}
		if opponent == -1 {
			// Everyone left is a rematch; take the nearest anyway.
			for j := i + 1; j < len(pool); j++ {
				if !used[j] {
					opponent = j
					break
				}
			}
		}
		if opponent == -1 {
			break
		}
		used[opponent] = true

		orderInRound++
		m := newMatch(tournamentID, round, label, orderInRound, models.BracketWinner)
		m.Slot1TeamID = &pool[i].team.ID
		m.Slot2TeamID = &pool[opponent].team.ID
		matches = append(matches, m)
	}

	return matches, nil
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}
