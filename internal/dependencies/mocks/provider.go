package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/impostor/internal/model"
)

// MockProvider is a content provider returning queued results.
// When Block is set, Generate waits for a value on it before answering.
type MockProvider struct {
	mu      sync.Mutex
	results []providerResult

	Block chan struct{}

	// Requested records the category of every call
	Requested []string
}

type providerResult struct {
	data model.RoundData
	err  error
}

// NewMockProvider creates a new MockProvider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// QueueData adds a successful result
func (p *MockProvider) QueueData(data model.RoundData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, providerResult{data: data})
}

// QueueError adds a failing result
func (p *MockProvider) QueueError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, providerResult{err: err})
}

// Generate returns the next queued result. With nothing queued it echoes
// the category with a placeholder word and hint.
func (p *MockProvider) Generate(ctx context.Context, category string) (model.RoundData, error) {
	if p.Block != nil {
		select {
		case <-p.Block:
		case <-ctx.Done():
			return model.RoundData{}, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requested = append(p.Requested, category)

	if len(p.results) == 0 {
		return model.RoundData{Category: category, SecretWord: "word", ImpostorHint: "hint"}, nil
	}
	r := p.results[0]
	p.results = p.results[1:]
	return r.data, r.err
}
