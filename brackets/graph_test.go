package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtside-live/models"
)

// miniBracket is a hand-built two-round knockout: semi1 and semi2 feed the
// final by winner edges.
func miniBracket() (*Index, *models.Match, *models.Match, *models.Match) {
	semi1 := &models.Match{ID: "s1", TournamentID: "t1", Round: 1, OrderInRound: 1, Bracket: models.BracketWinner, Status: models.MatchStatusScheduled}
	semi2 := &models.Match{ID: "s2", TournamentID: "t1", Round: 1, OrderInRound: 2, Bracket: models.BracketWinner, Status: models.MatchStatusScheduled}
	final := &models.Match{ID: "f", TournamentID: "t1", Round: 2, OrderInRound: 1, Bracket: models.BracketWinner, Status: models.MatchStatusScheduled}

	for i, m := range []*models.Match{semi1, semi2} {
		a := fmt.Sprintf("team-%d", 2*i+1)
		b := fmt.Sprintf("team-%d", 2*i+2)
		m.Slot1TeamID = &a
		m.Slot2TeamID = &b
	}

	edges := []models.BracketEdge{
		{ID: "e1", FromMatchID: "s1", Outcome: models.OutcomeWinner, ToMatchID: "f", ToSlot: 1},
		{ID: "e2", FromMatchID: "s2", Outcome: models.OutcomeWinner, ToMatchID: "f", ToSlot: 2},
	}
	ix := NewIndex([]*models.Match{semi1, semi2, final}, edges)
	return ix, semi1, semi2, final
}

func TestResolveFillsDestinationSlot(t *testing.T) {
	ix, semi1, _, final := miniBracket()

	semi1.Status = models.MatchStatusCompleted
	semi1.WinnerID = semi1.Slot1TeamID
	changed := ix.Resolve(semi1.ID)

	require.Len(t, changed, 1)
	assert.Equal(t, final.ID, changed[0].ID)
	assert.Equal(t, semi1.Slot1TeamID, final.Slot1TeamID)
	assert.Nil(t, final.Slot2TeamID)
	assert.Equal(t, models.MatchStatusScheduled, final.Status)
}

func TestResolveNeverDoubleFills(t *testing.T) {
	ix, semi1, _, final := miniBracket()

	semi1.Status = models.MatchStatusCompleted
	semi1.WinnerID = semi1.Slot1TeamID
	require.Len(t, ix.Resolve(semi1.ID), 1)

	// A repeated resolve of the same match touches nothing.
	assert.Empty(t, ix.Resolve(semi1.ID))
	assert.Equal(t, semi1.Slot1TeamID, final.Slot1TeamID)
}

func TestCancelledMatchLeavesDownstreamUnresolved(t *testing.T) {
	ix, semi1, semi2, final := miniBracket()

	// A real match cancelled at runtime produces no winner; the final's
	// slot stays open rather than voiding out.
	semi1.Status = models.MatchStatusCancelled
	assert.Empty(t, ix.Resolve(semi1.ID))
	assert.Nil(t, final.Slot1TeamID)
	assert.False(t, ix.SlotVoid(final, 1))

	// The other semifinal still advances normally, and the final does
	// not auto-complete as a bye.
	semi2.Status = models.MatchStatusCompleted
	semi2.WinnerID = semi2.Slot1TeamID
	changed := ix.Resolve(semi2.ID)
	require.Len(t, changed, 1)
	assert.Equal(t, models.MatchStatusScheduled, final.Status)
	assert.False(t, final.Bye)
}

func TestResolveAutoCompletesByeAgainstVoidSlot(t *testing.T) {
	ix, semi1, semi2, final := miniBracket()

	// semi2 collapses structurally: no teams, cancelled bye. Its winner
	// edge can never fire, so the final's slot 2 is void.
	semi2.Slot1TeamID = nil
	semi2.Slot2TeamID = nil
	semi2.Bye = true
	semi2.Status = models.MatchStatusCancelled

	semi1.Status = models.MatchStatusCompleted
	semi1.WinnerID = semi1.Slot1TeamID
	changed := ix.Resolve(semi1.ID)

	require.Len(t, changed, 1)
	assert.True(t, final.Bye)
	assert.Equal(t, models.MatchStatusCompleted, final.Status)
	assert.Equal(t, semi1.Slot1TeamID, final.WinnerID)
}

func TestSlotVoidRules(t *testing.T) {
	ix, semi1, _, final := miniBracket()

	// Seeded slots are never void.
	assert.False(t, ix.SlotVoid(semi1, 1))

	// Edge-fed slots are not void while the source is still playable.
	assert.False(t, ix.SlotVoid(final, 1))

	// A slot with neither seed nor feeding edge is void.
	orphan := &models.Match{ID: "o", TournamentID: "t1", Round: 1, Status: models.MatchStatusScheduled}
	ix.Add(orphan)
	assert.True(t, ix.SlotVoid(orphan, 1))

	// A completed source that cannot produce the outcome voids the slot:
	// byes have no loser.
	bye := &models.Match{ID: "b", TournamentID: "t1", Round: 1, Status: models.MatchStatusCompleted, Bye: true}
	team := "team-9"
	bye.Slot1TeamID = &team
	bye.WinnerID = &team
	dest := &models.Match{ID: "d", TournamentID: "t1", Round: 2, Status: models.MatchStatusScheduled}
	ix.Add(bye)
	ix.Add(dest)
	ix.AddEdge(models.BracketEdge{ID: "e3", FromMatchID: "b", Outcome: models.OutcomeLoser, ToMatchID: "d", ToSlot: 1})
	assert.True(t, ix.SlotVoid(dest, 1))
}
