package repository

import (
	"context"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/entity"
)

// GenerationRepository stores the history of generation attempts.
type GenerationRepository interface {
	Save(ctx context.Context, g *entity.Generation) error
	GetByID(ctx context.Context, id string) (*entity.Generation, error)
	List(ctx context.Context, limit int) ([]*entity.Generation, error)
}
