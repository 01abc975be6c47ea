package filesystem

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/repository"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/metrics"
)

// TemplateRepository reads reference templates from a directory on every call.
type TemplateRepository struct {
	basePath string
	logger   *slog.Logger
}

var _ repository.TemplateRepository = (*TemplateRepository)(nil)

func NewTemplateRepository(basePath string, logger *slog.Logger) (*TemplateRepository, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check directory %s: %w", basePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path %s exists but is not a directory", basePath)
	}

	return &TemplateRepository{
		basePath: basePath,
		logger:   logger,
	}, nil
}

func (r *TemplateRepository) GetBasePath() string {
	return r.basePath
}

func (r *TemplateRepository) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !filepath.IsLocal(name) {
		metrics.IncTemplateLoad("error")
		return "", fmt.Errorf("template name %q escapes %s", name, r.basePath)
	}

	f, err := os.Open(filepath.Join(r.basePath, name))
	if err != nil {
		metrics.IncTemplateLoad("error")
		return "", fmt.Errorf("failed to open template: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			r.logger.Warn("close template failed", "name", name, "err", err)
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		metrics.IncTemplateLoad("error")
		return "", fmt.Errorf("failed to read template: %w", err)
	}

	metrics.IncTemplateLoad("ok")
	return string(data), nil
}
