package entity

import (
	"time"

	"github.com/google/uuid"
)

type GenerationStatus string

const (
	GenerationSucceeded GenerationStatus = "succeeded"
	GenerationFailed    GenerationStatus = "failed"
)

type GenerationRequest struct {
	Description string `json:"description"`
	Language    string `json:"language"`
}

// Generation is the outcome of a single contract generation attempt.
type Generation struct {
	ID          string           `json:"id" bson:"id"`
	Description string           `json:"description" bson:"description"`
	Language    string           `json:"language" bson:"language"`
	Model       string           `json:"model" bson:"model"`
	Code        string           `json:"code,omitempty" bson:"code,omitempty"`
	Status      GenerationStatus `json:"status" bson:"status"`
	ErrorKind   ErrorKind        `json:"error_kind,omitempty" bson:"error_kind,omitempty"`
	Error       string           `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
	DurationMs  int64            `json:"duration_ms" bson:"duration_ms"`
}

func NewGeneration(req GenerationRequest, model string) *Generation {
	return &Generation{
		ID:          uuid.NewString(),
		Description: req.Description,
		Language:    req.Language,
		Model:       model,
		CreatedAt:   time.Now().UTC(),
	}
}

func (g *Generation) Succeed(code string) {
	g.Code = code
	g.Status = GenerationSucceeded
	g.DurationMs = time.Since(g.CreatedAt).Milliseconds()
}

func (g *Generation) Fail(err error) {
	g.Status = GenerationFailed
	g.ErrorKind = KindOf(err)
	g.Error = err.Error()
	g.DurationMs = time.Since(g.CreatedAt).Milliseconds()
}
