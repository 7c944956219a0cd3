package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"courtside-live/models"
	"courtside-live/repositories"
	"courtside-live/storage"
	"courtside-live/stream"
)

type CreateTournamentInput struct {
	Name      string
	Format    models.TournamentFormat
	StartDate time.Time
}

type AddTeamInput struct {
	Name    string
	Seed    int
	Players []string
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	AddTeam(ctx context.Context, tournamentID string, input AddTeamInput) (*models.Team, error)
	Activate(ctx context.Context, tournamentID string) (*models.Tournament, error)
	AutoActivateDue(ctx context.Context) error
	UploadLogo(ctx context.Context, tournamentID string, filename string, contentType string, file io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	bracketService BracketService
	uploader       storage.FileUploader
	hub            *stream.Hub
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	bracketService BracketService,
	uploader storage.FileUploader,
	hub *stream.Hub,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		bracketService: bracketService,
		uploader:       uploader,
		hub:            hub,
		logger:         logger,
	}
}

var validFormats = map[models.TournamentFormat]bool{
	models.FormatSingleElimination: true,
	models.FormatDoubleElimination: true,
	models.FormatSwiss:             true,
	models.FormatRoundRobin:        true,
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidation)
	}
	if !validFormats[input.Format] {
		return nil, fmt.Errorf("%w: unknown format %q", ErrValidation, input.Format)
	}

	t := &models.Tournament{
		ID:        uuid.NewString(),
		Name:      name,
		Format:    input.Format,
		Status:    models.TournamentStatusDraft,
		StartDate: input.StartDate,
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	s.logger.Info("tournament created",
		slog.String("tournament_id", t.ID),
		slog.String("format", string(t.Format)))
	return t, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	s.resolveLogoURL(t)
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	list, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for i := range list {
		s.resolveLogoURL(&list[i])
	}
	return list, nil
}

func (s *tournamentService) AddTeam(ctx context.Context, tournamentID string, input AddTeamInput) (*models.Team, error) {
	t, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.TournamentStatusDraft {
		return nil, fmt.Errorf("%w: teams can only be added to draft tournaments", ErrTournamentNotDraft)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidation)
	}
	if input.Seed < 1 {
		return nil, fmt.Errorf("%w: seed must be positive", ErrValidation)
	}

	team := &models.Team{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		Name:         name,
		Seed:         input.Seed,
		Players:      input.Players,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// Activate moves a draft tournament to active and generates its bracket.
func (s *tournamentService) Activate(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	t, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.TournamentStatusDraft {
		return nil, fmt.Errorf("%w: tournament %s is %s", ErrTournamentNotDraft, t.ID, t.Status)
	}

	if _, err := s.bracketService.GenerateAndSaveBracket(ctx, t); err != nil {
		return nil, err
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, models.TournamentStatusActive); err != nil {
		return nil, fmt.Errorf("failed to activate tournament %s: %w", t.ID, err)
	}
	t.Status = models.TournamentStatusActive

	s.hub.Publish(stream.Event{
		Name:     stream.EventTournamentUpdate,
		StreamID: stream.TournamentStreamID(t.ID),
		Payload: stream.TournamentUpdatePayload{
			TournamentID: t.ID,
			Status:       models.TournamentStatusActive,
			Message:      "tournament started",
		},
	})
	s.logger.Info("tournament activated", slog.String("tournament_id", t.ID))
	return t, nil
}

// AutoActivateDue activates every draft tournament whose start date has
// passed. Runs on a scheduler tick; failures on one tournament do not stop
// the rest.
func (s *tournamentService) AutoActivateDue(ctx context.Context) error {
	due, err := s.tournamentRepo.ListDueForActivation(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to list tournaments due for activation: %w", err)
	}
	for _, t := range due {
		if _, err := s.Activate(ctx, t.ID); err != nil {
			s.logger.Error("failed to auto-activate tournament",
				slog.String("tournament_id", t.ID),
				slog.Any("error", err))
		}
	}
	return nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, tournamentID string, filename string, contentType string, file io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: logo storage is not configured", ErrValidation)
	}
	t, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%s/logo%s", tournamentID, path.Ext(filename))
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo for tournament %s: %w", tournamentID, err)
	}
	if err := s.tournamentRepo.UpdateLogoKey(ctx, tournamentID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store logo key for tournament %s: %w", tournamentID, err)
	}
	t.LogoKey = &result.Key
	t.LogoURL = &result.Location
	return t, nil
}

func (s *tournamentService) resolveLogoURL(t *models.Tournament) {
	if s.uploader == nil || t.LogoKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*t.LogoKey)
	if url != "" {
		t.LogoURL = &url
	}
}
