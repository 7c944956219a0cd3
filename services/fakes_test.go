package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"courtside-live/models"
	"courtside-live/repositories"
)

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[string]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[string]*models.Tournament)}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.CreatedAt = time.Now()
	r.tournaments[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tournament
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Format != nil && t.Format != *filter.Format {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id string, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) UpdateWinner(ctx context.Context, exec repositories.SQLExecutor, id string, winnerTeamID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.WinnerID = winnerTeamID
	return nil
}

func (r *fakeTournamentRepo) UpdateLogoKey(ctx context.Context, id string, logoKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LogoKey = logoKey
	return nil
}

func (r *fakeTournamentRepo) ListDueForActivation(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.tournaments {
		if t.Status == models.TournamentStatusDraft && !t.StartDate.After(now) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeTeamRepo struct {
	mu    sync.Mutex
	teams map[string]*models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[string]*models.Team)}
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team.CreatedAt = time.Now()
	r.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id string) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return team, nil
}

func (r *fakeTeamRepo) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Team
	for _, team := range r.teams {
		if team.TournamentID == tournamentID {
			out = append(out, team)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seed != out[j].Seed {
			return out[i].Seed < out[j].Seed
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

type fakeCourtRepo struct {
	mu     sync.Mutex
	courts map[string]*models.Court
}

func newFakeCourtRepo() *fakeCourtRepo {
	return &fakeCourtRepo{courts: make(map[string]*models.Court)}
}

func (r *fakeCourtRepo) Create(ctx context.Context, court *models.Court) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	court.CreatedAt = time.Now()
	r.courts[court.ID] = court
	return nil
}

func (r *fakeCourtRepo) GetByID(ctx context.Context, id string) (*models.Court, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	court, ok := r.courts[id]
	if !ok {
		return nil, repositories.ErrCourtNotFound
	}
	return court, nil
}

func (r *fakeCourtRepo) List(ctx context.Context) ([]models.Court, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Court
	for _, c := range r.courts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeMatchRepo struct {
	mu        sync.Mutex
	matches   map[string]*models.Match
	edges     []models.BracketEdge
	updates   int
	updateErr error
}

func (r *fakeMatchRepo) failUpdates(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateErr = err
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[string]*models.Match)}
}

func (r *fakeMatchRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, matches []*models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range matches {
		c := *m
		r.matches[m.ID] = &c
	}
	return nil
}

func (r *fakeMatchRepo) Update(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.matches[match.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	c := *match
	r.matches[match.ID] = &c
	r.updates++
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id string) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	c := *m
	return &c, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].OrderInRound < out[j].OrderInRound
	})
	return out, nil
}

func (r *fakeMatchRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.matches {
		if m.TournamentID == tournamentID {
			delete(r.matches, id)
		}
	}
	kept := r.edges[:0]
	for _, e := range r.edges {
		if _, ok := r.matches[e.FromMatchID]; ok {
			kept = append(kept, e)
		}
	}
	r.edges = kept
	return nil
}

func (r *fakeMatchRepo) CreateEdges(ctx context.Context, exec repositories.SQLExecutor, edges []models.BracketEdge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges = append(r.edges, edges...)
	return nil
}

func (r *fakeMatchRepo) ListEdgesByTournament(ctx context.Context, tournamentID string) ([]models.BracketEdge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BracketEdge
	for _, e := range r.edges {
		if m, ok := r.matches[e.FromMatchID]; ok && m.TournamentID == tournamentID {
			out = append(out, e)
		}
	}
	return out, nil
}
