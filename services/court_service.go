package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"courtside-live/models"
	"courtside-live/repositories"
)

type CourtService interface {
	Create(ctx context.Context, name string, location *string) (*models.Court, error)
	GetByID(ctx context.Context, id string) (*models.Court, error)
	List(ctx context.Context) ([]models.Court, error)
}

type courtService struct {
	courtRepo repositories.CourtRepository
}

func NewCourtService(courtRepo repositories.CourtRepository) CourtService {
	return &courtService{courtRepo: courtRepo}
}

func (s *courtService) Create(ctx context.Context, name string, location *string) (*models.Court, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: court name is required", ErrValidation)
	}
	court := &models.Court{
		ID:       uuid.NewString(),
		Name:     name,
		Location: location,
	}
	if err := s.courtRepo.Create(ctx, court); err != nil {
		return nil, fmt.Errorf("failed to create court: %w", err)
	}
	return court, nil
}

func (s *courtService) GetByID(ctx context.Context, id string) (*models.Court, error) {
	court, err := s.courtRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return court, nil
}

func (s *courtService) List(ctx context.Context) ([]models.Court, error) {
	courts, err := s.courtRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	return courts, nil
}
