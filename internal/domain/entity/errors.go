package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNoCodeGenerated     = errors.New("no code generated for requested language")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrGenerationNotFound  = errors.New("generation not found")
)

type ErrorKind string

const (
	ErrorKindTemplateLoad ErrorKind = "template_load"
	ErrorKindUpstream     ErrorKind = "upstream"
	ErrorKindExtraction   ErrorKind = "extraction"
	ErrorKindInternal     ErrorKind = "internal"
)

// TemplateLoadError reports that the reference template could not be read.
type TemplateLoadError struct {
	Name string
	Err  error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("load template %q: %v", e.Name, e.Err)
}

func (e *TemplateLoadError) Unwrap() error { return e.Err }

// UpstreamError reports a non-success status from the text generation service.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ExtractionError reports that no code could be taken from the model reply.
type ExtractionError struct {
	Language string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %q code: %v", e.Language, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func KindOf(err error) ErrorKind {
	var (
		tmplErr     *TemplateLoadError
		upstreamErr *UpstreamError
		extractErr  *ExtractionError
	)
	switch {
	case errors.As(err, &tmplErr):
		return ErrorKindTemplateLoad
	case errors.As(err, &upstreamErr):
		return ErrorKindUpstream
	case errors.As(err, &extractErr):
		return ErrorKindExtraction
	default:
		return ErrorKindInternal
	}
}
