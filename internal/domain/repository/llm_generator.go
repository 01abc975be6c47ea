package repository

import (
	"context"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/entity"
)

// LLMGenerator sends a prompt to a text generation service.
type LLMGenerator interface {
	// Complete returns the content of the first choice of the reply.
	// A non-success status is reported as *entity.UpstreamError.
	Complete(ctx context.Context, prompt entity.Prompt) (string, error)
	Model() string
}
