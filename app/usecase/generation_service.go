package usecase

import (
	"context"
	"fmt"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/entity"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/repository"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type GenerationsUseCase interface {
	GetGeneration(ctx context.Context, id string) (*entity.Generation, error)
	ListGenerations(ctx context.Context, limit int) ([]*entity.Generation, error)
}

type GenerationService struct {
	repo repository.GenerationRepository
}

func NewGenerationService(repo repository.GenerationRepository) *GenerationService {
	return &GenerationService{repo: repo}
}

var _ GenerationsUseCase = (*GenerationService)(nil)

func (s *GenerationService) GetGeneration(ctx context.Context, id string) (*entity.Generation, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get generation %s: %w", id, err)
	}
	return g, nil
}

// ListGenerations returns the newest generations first. limit is clamped to
// [1, MaxListLimit]; zero or negative selects DefaultListLimit.
func (s *GenerationService) ListGenerations(ctx context.Context, limit int) ([]*entity.Generation, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	list, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	return list, nil
}
