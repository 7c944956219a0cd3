package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"courtside-live/brackets"
	"courtside-live/models"
	"courtside-live/repositories"

	"golang.org/x/sync/errgroup"
)

// BracketService builds and persists tournament topologies and assembles
// the full bracket view for read endpoints.
type BracketService interface {
	GenerateAndSaveBracket(ctx context.Context, tournament *models.Tournament) (*brackets.Topology, error)
	RegenerateBracket(ctx context.Context, tournamentID string) (*brackets.Topology, error)
	GetFullBracket(ctx context.Context, tournamentID string) (*models.Tournament, error)
	ListMatches(ctx context.Context, tournamentID string) ([]*models.Match, error)
	ComputeLayout(ctx context.Context, tournamentID string, cfg brackets.LayoutConfig) (*brackets.Layout, error)
}

type bracketService struct {
	db             *sql.DB
	registry       *Registry
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	logger         *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	registry *Registry,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) BracketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bracketService{
		db:             db,
		registry:       registry,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		logger:         logger,
	}
}

func (s *bracketService) GenerateAndSaveBracket(ctx context.Context, tournament *models.Tournament) (*brackets.Topology, error) {
	teams, topo, err := s.rebuild(ctx, tournament)
	if err != nil {
		return nil, err
	}
	s.registry.Install(tournament, teams, topo)
	return topo, nil
}

// rebuild generates the topology and swaps the persisted bracket in one
// transaction. The live registry entry is untouched; callers publish the
// new bracket themselves.
func (s *bracketService) rebuild(ctx context.Context, tournament *models.Tournament) ([]*models.Team, *brackets.Topology, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list teams for tournament %s: %w", tournament.ID, err)
	}
	if len(teams) < 2 {
		return nil, nil, fmt.Errorf("%w: %d teams registered", brackets.ErrInvalidTeamCount, len(teams))
	}

	generator, err := brackets.ForFormat(tournament.Format)
	if err != nil {
		return nil, nil, err
	}

	topo, err := generator.Generate(ctx, brackets.GenerateParams{
		Tournament: tournament,
		Teams:      teams,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate %s bracket for tournament %s: %w",
			generator.Name(), tournament.ID, err)
	}

	err = runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.DeleteByTournament(ctx, exec, tournament.ID); err != nil {
			return fmt.Errorf("failed to clear previous bracket for tournament %s: %w", tournament.ID, err)
		}
		if err := s.matchRepo.CreateBatch(ctx, exec, topo.Matches); err != nil {
			return fmt.Errorf("failed to persist bracket for tournament %s: %w", tournament.ID, err)
		}
		if err := s.matchRepo.CreateEdges(ctx, exec, topo.Edges); err != nil {
			return fmt.Errorf("failed to persist bracket edges for tournament %s: %w", tournament.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("bracket generated",
		slog.String("tournament_id", tournament.ID),
		slog.String("generator", generator.Name()),
		slog.Int("matches", len(topo.Matches)),
		slog.Int("edges", len(topo.Edges)))
	return teams, topo, nil
}

// RegenerateBracket rebuilds the topology from scratch. Allowed only while
// no match has been played. The bracket mutex stays held across the guard
// check, the persisted swap and the registry replace, so no result can be
// submitted against the outgoing bracket and then silently lost.
func (s *bracketService) RegenerateBracket(ctx context.Context, tournamentID string) (*brackets.Topology, error) {
	lb, release, err := s.registry.Acquire(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	defer release()

	for _, m := range lb.index.Matches() {
		if m.Status == models.MatchStatusCompleted && !m.Bye {
			return nil, ErrBracketLocked
		}
	}

	teams, topo, err := s.rebuild(ctx, lb.tournament)
	if err != nil {
		return nil, err
	}
	s.registry.Replace(lb, lb.tournament, teams, topo)
	return topo, nil
}

func (s *bracketService) GetFullBracket(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.teamRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load teams: %w", err)
		}
		tournament.Teams = make([]models.Team, 0, len(teams))
		for _, t := range teams {
			tournament.Teams = append(tournament.Teams, *t)
		}
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		tournament.Matches = make([]models.Match, 0, len(matches))
		for _, m := range matches {
			tournament.Matches = append(tournament.Matches, *m)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to assemble bracket for tournament %s: %w", tournamentID, err)
	}
	return tournament, nil
}

func (s *bracketService) ListMatches(ctx context.Context, tournamentID string) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %s: %w", tournamentID, err)
	}
	return matches, nil
}

// ComputeLayout renders the current topology snapshot deterministically.
func (s *bracketService) ComputeLayout(ctx context.Context, tournamentID string, cfg brackets.LayoutConfig) (*brackets.Layout, error) {
	lb, release, err := s.registry.Acquire(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	live := lb.index.Matches()
	matches := make([]*models.Match, len(live))
	for i, m := range live {
		c := *m
		matches[i] = &c
	}
	edges := lb.edges
	release()

	layout := brackets.ComputeLayout(matches, edges, cfg)
	return &layout, nil
}
