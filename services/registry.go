package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"courtside-live/brackets"
	"courtside-live/models"
	"courtside-live/repositories"
)

// liveBracket is the authoritative in-process state of one tournament's
// match graph. All mutations happen under its mutex, held for the whole
// operation including cascades and event publication, so readers never see
// a half-cascaded graph. Separate tournaments never contend.
type liveBracket struct {
	mu sync.Mutex
	// stale is set, under mu, when a regeneration or a failed persist
	// retires this bracket. Waiters blocked in Acquire must re-resolve the
	// registry entry instead of mutating a retired graph.
	stale      bool
	tournament *models.Tournament
	teams      map[string]*models.Team
	teamList   []*models.Team
	index      *brackets.Index
	edges      []models.BracketEdge
}

func newLiveBracket(t *models.Tournament, teams []*models.Team, matches []*models.Match, edges []models.BracketEdge) *liveBracket {
	lb := &liveBracket{
		tournament: t,
		teams:      make(map[string]*models.Team, len(teams)),
		teamList:   teams,
		index:      brackets.NewIndex(matches, edges),
		edges:      edges,
	}
	for _, team := range teams {
		lb.teams[team.ID] = team
	}
	return lb
}

func (lb *liveBracket) team(id *string) *models.Team {
	if id == nil {
		return nil
	}
	return lb.teams[*id]
}

// finalMatch is the converging match of the winner bracket: the highest
// round wins ties by lowest order.
func (lb *liveBracket) finalMatch() *models.Match {
	var final *models.Match
	for _, m := range lb.index.Matches() {
		if m.Bracket != models.BracketWinner {
			continue
		}
		if final == nil || m.Round > final.Round {
			final = m
		}
	}
	return final
}

func (lb *liveBracket) maxRound() int {
	max := 0
	for _, m := range lb.index.Matches() {
		if m.Round > max {
			max = m.Round
		}
	}
	return max
}

// Registry tracks the live brackets of active tournaments, loading them
// from the persistence collaborator on first touch.
type Registry struct {
	mu   sync.Mutex
	live map[string]*liveBracket

	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
}

func NewRegistry(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
) *Registry {
	return &Registry{
		live:           make(map[string]*liveBracket),
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
	}
}

// Acquire returns the live bracket for a tournament with its mutex held.
// The caller must invoke the returned release function once done mutating
// and publishing.
func (r *Registry) Acquire(ctx context.Context, tournamentID string) (*liveBracket, func(), error) {
	for {
		r.mu.Lock()
		lb, ok := r.live[tournamentID]
		r.mu.Unlock()

		if !ok {
			loaded, err := r.load(ctx, tournamentID)
			if err != nil {
				return nil, nil, err
			}
			r.mu.Lock()
			if existing, raced := r.live[tournamentID]; raced {
				lb = existing
			} else {
				r.live[tournamentID] = loaded
				lb = loaded
			}
			r.mu.Unlock()
		}

		lb.mu.Lock()
		if lb.stale {
			// Retired while we waited for the lock; resolve the entry again.
			lb.mu.Unlock()
			continue
		}
		return lb, lb.mu.Unlock, nil
	}
}

// Install publishes the live bracket after generation. Any previous entry
// is retired so lock waiters do not keep mutating it.
func (r *Registry) Install(t *models.Tournament, teams []*models.Team, topo *brackets.Topology) {
	lb := newLiveBracket(t, teams, topo.Matches, topo.Edges)
	r.mu.Lock()
	old := r.live[t.ID]
	r.live[t.ID] = lb
	r.mu.Unlock()
	if old != nil {
		old.mu.Lock()
		old.stale = true
		old.mu.Unlock()
	}
}

// Replace swaps in a regenerated bracket while the caller still holds the
// old bracket's mutex, so no mutation can slip in between the guard check
// and the swap.
func (r *Registry) Replace(old *liveBracket, t *models.Tournament, teams []*models.Team, topo *brackets.Topology) {
	lb := newLiveBracket(t, teams, topo.Matches, topo.Edges)
	r.mu.Lock()
	r.live[t.ID] = lb
	r.mu.Unlock()
	old.stale = true
}

// Evict drops a tournament's live state; the next Acquire reloads it. The
// caller must mark the bracket stale under its mutex if waiters may exist.
func (r *Registry) Evict(tournamentID string) {
	r.mu.Lock()
	delete(r.live, tournamentID)
	r.mu.Unlock()
}

func (r *Registry) load(ctx context.Context, tournamentID string) (*liveBracket, error) {
	t, err := r.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", tournamentID, err)
	}
	teams, err := r.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams for tournament %s: %w", tournamentID, err)
	}
	matches, err := r.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for tournament %s: %w", tournamentID, err)
	}
	edges, err := r.matchRepo.ListEdgesByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bracket edges for tournament %s: %w", tournamentID, err)
	}

	return newLiveBracket(t, teams, matches, edges), nil
}
