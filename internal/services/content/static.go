package content

import (
	"context"

	"github.com/mcoot/impostor/internal/model"
)

// StaticProvider always returns the same content
type StaticProvider struct {
	Data model.RoundData
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider creates a provider that always returns the fallback content
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{Data: Fallback()}
}

// Generate returns the fixed content regardless of category
func (p *StaticProvider) Generate(ctx context.Context, category string) (model.RoundData, error) {
	if err := ctx.Err(); err != nil {
		return model.RoundData{}, err
	}
	return p.Data, nil
}
