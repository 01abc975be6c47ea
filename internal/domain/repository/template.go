package repository

import "context"

// TemplateRepository gives read access to reference contract templates.
type TemplateRepository interface {
	Load(ctx context.Context, name string) (string, error)
}
