package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtside-live/models"
)

func generateDouble(t *testing.T, n int) *Topology {
	t.Helper()
	topo, err := NewDoubleEliminationGenerator().Generate(context.Background(),
		makeParams(n, models.FormatDoubleElimination))
	require.NoError(t, err)
	return topo
}

func TestDoubleEliminationTopologyFourTeams(t *testing.T) {
	topo := generateDouble(t, 4)

	// 2 WB semis, WB final, 2 LB matches, grand final.
	require.Len(t, topo.Matches, 6)

	var grand *models.Match
	var loserRounds []*models.Match
	for _, m := range topo.Matches {
		if m.RoundLabel == GrandFinalLabel {
			grand = m
		}
		if m.Bracket == models.BracketLoser {
			loserRounds = append(loserRounds, m)
		}
	}
	require.NotNil(t, grand)
	require.Len(t, loserRounds, 2)
	assert.Equal(t, 3, grand.Round)

	// Grand final is fed by both bracket finals.
	in := map[int]models.BracketEdge{}
	for _, e := range topo.Edges {
		if e.ToMatchID == grand.ID {
			in[e.ToSlot] = e
		}
	}
	require.Len(t, in, 2)
	assert.Equal(t, models.OutcomeWinner, in[1].Outcome)
	assert.Equal(t, models.OutcomeWinner, in[2].Outcome)
}

func TestDoubleEliminationEveryTeamGetsSecondChance(t *testing.T) {
	topo := generateDouble(t, 8)
	ix := NewIndex(topo.Matches, topo.Edges)

	// Every winner-bracket match except the grand final routes its loser
	// somewhere in the loser bracket.
	for _, m := range topo.Matches {
		if m.Bracket != models.BracketWinner || m.RoundLabel == GrandFinalLabel {
			continue
		}
		found := false
		for _, e := range ix.Outgoing(m.ID) {
			if e.Outcome == models.OutcomeLoser {
				dest := ix.Match(e.ToMatchID)
				require.NotNil(t, dest)
				assert.Equal(t, models.BracketLoser, dest.Bracket)
				found = true
			}
		}
		assert.True(t, found, "match %s round %d drops no loser", m.ID, m.Round)
	}
}

func TestDoubleEliminationIntakeAvoidsImmediateRematch(t *testing.T) {
	topo := generateDouble(t, 8)
	ix := NewIndex(topo.Matches, topo.Edges)

	wbByRound := map[int][]*models.Match{}
	lbByRound := map[int][]*models.Match{}
	for _, m := range topo.Matches {
		switch m.Bracket {
		case models.BracketWinner:
			if m.RoundLabel != GrandFinalLabel {
				wbByRound[m.Round] = append(wbByRound[m.Round], m)
			}
		case models.BracketLoser:
			lbByRound[m.Round] = append(lbByRound[m.Round], m)
		}
	}
	require.Len(t, lbByRound[2], 2)

	// Odd intake reverses the winner-bracket order: LB round 2 match i
	// receives the loser of WB round 2 match count-1-i.
	for i, lm := range lbByRound[2] {
		edge, ok := ix.Incoming(lm.ID, 2)
		require.True(t, ok)
		assert.Equal(t, wbByRound[2][len(lbByRound[2])-1-i].ID, edge.FromMatchID)
	}
}

func TestDoubleEliminationCascadeToGrandFinal(t *testing.T) {
	topo := generateDouble(t, 4)
	ix := NewIndex(topo.Matches, topo.Edges)

	complete := func(m *models.Match, winner *string) {
		m.Status = models.MatchStatusCompleted
		m.WinnerID = winner
		ix.Resolve(m.ID)
	}

	var wbSemis []*models.Match
	var wbFinal, grand *models.Match
	var lbMatches []*models.Match
	for _, m := range topo.Matches {
		switch {
		case m.Bracket == models.BracketLoser:
			lbMatches = append(lbMatches, m)
		case m.RoundLabel == GrandFinalLabel:
			grand = m
		case m.Round == 1:
			wbSemis = append(wbSemis, m)
		default:
			wbFinal = m
		}
	}
	require.Len(t, wbSemis, 2)
	require.Len(t, lbMatches, 2)

	// Higher seeds win the semis; losers drop to the loser bracket.
	complete(wbSemis[0], wbSemis[0].Slot1TeamID)
	complete(wbSemis[1], wbSemis[1].Slot1TeamID)
	assert.Equal(t, 1, teamSeed(t, wbFinal.Slot1TeamID))
	assert.Equal(t, 2, teamSeed(t, wbFinal.Slot2TeamID))
	assert.Equal(t, 4, teamSeed(t, lbMatches[0].Slot1TeamID))
	assert.Equal(t, 3, teamSeed(t, lbMatches[0].Slot2TeamID))

	// Seed 3 survives the loser bracket, seed 1 takes the winner bracket.
	complete(lbMatches[0], lbMatches[0].Slot2TeamID)
	complete(wbFinal, wbFinal.Slot1TeamID)
	assert.Equal(t, 3, teamSeed(t, lbMatches[1].Slot1TeamID))
	assert.Equal(t, 2, teamSeed(t, lbMatches[1].Slot2TeamID))

	complete(lbMatches[1], lbMatches[1].Slot2TeamID)
	assert.Equal(t, 1, teamSeed(t, grand.Slot1TeamID))
	assert.Equal(t, 2, teamSeed(t, grand.Slot2TeamID))
	assert.True(t, grand.Ready())
	assert.Equal(t, models.MatchStatusScheduled, grand.Status)
}

func TestDoubleEliminationTwoTeams(t *testing.T) {
	topo := generateDouble(t, 2)

	require.Len(t, topo.Matches, 2)
	grand := topo.Matches[1]
	assert.Equal(t, GrandFinalLabel, grand.RoundLabel)

	// The opening match loser re-enters directly in the grand final.
	var loserEdge *models.BracketEdge
	for i, e := range topo.Edges {
		if e.Outcome == models.OutcomeLoser {
			loserEdge = &topo.Edges[i]
		}
	}
	require.NotNil(t, loserEdge)
	assert.Equal(t, grand.ID, loserEdge.ToMatchID)
	assert.Equal(t, 2, loserEdge.ToSlot)
}

func TestGrandFinalReset(t *testing.T) {
	team1, team2 := "team-1", "team-2"
	grand := &models.Match{
		ID:           "gf",
		TournamentID: "t1",
		Round:        3,
		RoundLabel:   GrandFinalLabel,
		Bracket:      models.BracketWinner,
		Slot1TeamID:  &team1,
		Slot2TeamID:  &team2,
		Status:       models.MatchStatusCompleted,
		WinnerID:     &team2,
	}

	reset := GrandFinalReset("t1", grand)
	assert.Equal(t, GrandFinalResetLabel, reset.RoundLabel)
	assert.Equal(t, 4, reset.Round)
	assert.Equal(t, &team1, reset.Slot1TeamID)
	assert.Equal(t, &team2, reset.Slot2TeamID)
	assert.Equal(t, models.MatchStatusScheduled, reset.Status)
	assert.True(t, reset.Ready())
}
