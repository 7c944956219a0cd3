package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtside-live/brackets"
	"courtside-live/models"
)

// A caller blocked on the bracket mutex while a regeneration swaps the
// graph must come back holding the regenerated bracket, never the retired
// one.
func TestAcquireSkipsRetiredBracket(t *testing.T) {
	env := newTestEnv(t, 4, models.FormatSingleElimination)
	ctx := context.Background()

	lb, release, err := env.registry.Acquire(ctx, "t1")
	require.NoError(t, err)

	type acquired struct {
		lb      *liveBracket
		release func()
	}
	got := make(chan acquired, 1)
	go func() {
		waiter, rel, acqErr := env.registry.Acquire(ctx, "t1")
		if acqErr != nil {
			t.Error(acqErr)
			return
		}
		got <- acquired{lb: waiter, release: rel}
	}()

	gen, err := brackets.ForFormat(models.FormatSingleElimination)
	require.NoError(t, err)
	fresh, err := gen.Generate(ctx, brackets.GenerateParams{
		Tournament: lb.tournament,
		Teams:      lb.teamList,
	})
	require.NoError(t, err)

	env.registry.Replace(lb, lb.tournament, lb.teamList, fresh)
	release()

	select {
	case res := <-got:
		defer res.release()
		assert.NotSame(t, lb, res.lb)
		assert.NotNil(t, res.lb.index.Match(fresh.Matches[0].ID))
		assert.Nil(t, res.lb.index.Match(env.topo.Matches[0].ID))
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the regenerated bracket")
	}
}

func TestRegenerateBracketRetiresOldMatches(t *testing.T) {
	env := newTestEnv(t, 4, models.FormatSingleElimination)
	ctx := context.Background()
	semi1 := env.matchAt(t, models.BracketWinner, 1, 1)

	fresh, err := env.bracket.RegenerateBracket(ctx, "t1")
	require.NoError(t, err)

	// Results against the outgoing bracket cannot land anywhere.
	_, err = env.progression.SubmitResult(ctx, semi1.ID, winScore(5), nil)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = env.progression.SubmitResult(ctx, fresh.Matches[0].ID, winScore(5), nil)
	require.NoError(t, err)
}
