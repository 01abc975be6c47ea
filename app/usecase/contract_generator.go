package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/codeblock"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/entity"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/repository"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/metrics"
)

const (
	DefaultTemplateName = "adder.rs"
	historyWriteTimeout = 5 * time.Second
)

type ContractGenerator interface {
	Generate(ctx context.Context, req entity.GenerationRequest) (*entity.Generation, error)
}

type ContractGeneratorService struct {
	templates    repository.TemplateRepository
	llm          repository.LLMGenerator
	history      repository.GenerationRepository // optional
	templateName string
	logger       *slog.Logger
}

var _ ContractGenerator = (*ContractGeneratorService)(nil)

// NewContractGeneratorService wires the generator. history may be nil, in
// which case attempts are not recorded.
func NewContractGeneratorService(
	templates repository.TemplateRepository,
	llm repository.LLMGenerator,
	history repository.GenerationRepository,
	templateName string,
	logger *slog.Logger,
) *ContractGeneratorService {
	if templateName == "" {
		templateName = DefaultTemplateName
	}
	return &ContractGeneratorService{
		templates:    templates,
		llm:          llm,
		history:      history,
		templateName: templateName,
		logger:       logger,
	}
}

// Generate runs one generation:
// 1) resolve the extraction strategy for the requested language
// 2) load the reference template
// 3) ask the LLM
// 4) extract the first fenced block for the language
//
// On failure the returned error is one of *entity.TemplateLoadError,
// *entity.UpstreamError, *entity.ExtractionError or an internal error.
func (s *ContractGeneratorService) Generate(ctx context.Context, req entity.GenerationRequest) (*entity.Generation, error) {
	gen := entity.NewGeneration(req, s.llm.Model())
	lang, supported := entity.ParseLanguage(req.Language)

	code, err := s.generate(ctx, gen, lang, supported)
	if err != nil {
		gen.Fail(err)
		s.logger.Error("contract generation failed",
			"generation_id", gen.ID,
			"language", req.Language,
			"kind", gen.ErrorKind,
			"err", err,
		)
	} else {
		gen.Succeed(code)
		s.logger.Info("contract generated",
			"generation_id", gen.ID,
			"language", lang,
			"code_len", len(code),
			"duration_ms", gen.DurationMs,
		)
	}

	metrics.IncGeneration(languageLabel(lang, supported), resultLabel(gen))
	metrics.ObserveGenerationDuration(time.Duration(gen.DurationMs) * time.Millisecond)
	s.record(ctx, gen)

	if err != nil {
		return nil, err
	}
	return gen, nil
}

func (s *ContractGeneratorService) generate(ctx context.Context, gen *entity.Generation, lang entity.Language, supported bool) (string, error) {
	// No extraction strategy means the reply can never be used; skip the upstream call.
	extractor, ok := codeblock.For(lang)
	if !supported || !ok {
		return "", &entity.ExtractionError{Language: gen.Language, Err: entity.ErrUnsupportedLanguage}
	}

	tmpl, err := s.templates.Load(ctx, s.templateName)
	if err != nil {
		return "", &entity.TemplateLoadError{Name: s.templateName, Err: err}
	}

	prompt := entity.NewContractPrompt(gen.Description, tmpl, gen.Language)

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		var upstreamErr *entity.UpstreamError
		if errors.As(err, &upstreamErr) {
			return "", err
		}
		return "", fmt.Errorf("llm complete: %w", err)
	}

	code, ok := extractor.Extract(reply)
	if !ok {
		s.logger.Debug("no fenced block in reply", "generation_id", gen.ID, "reply_len", len(reply))
		return "", &entity.ExtractionError{Language: gen.Language, Err: entity.ErrNoCodeGenerated}
	}
	return code, nil
}

// record stores the attempt. Failures are logged and never change the result.
func (s *ContractGeneratorService) record(ctx context.Context, gen *entity.Generation) {
	if s.history == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()

	if err := s.history.Save(saveCtx, gen); err != nil {
		metrics.IncError("usecase", "history_save")
		s.logger.Warn("save generation failed", "generation_id", gen.ID, "err", err)
	}
}

func languageLabel(lang entity.Language, supported bool) string {
	if !supported {
		return "unsupported"
	}
	return string(lang)
}

func resultLabel(gen *entity.Generation) string {
	if gen.Status == entity.GenerationSucceeded {
		return string(gen.Status)
	}
	return string(gen.ErrorKind)
}
