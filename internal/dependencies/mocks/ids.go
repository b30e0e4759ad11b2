package mocks

import (
	"fmt"

	"github.com/mcoot/impostor/internal/dependencies/ids"
)

// MockIDs is a mock implementation of ids.Generator for testing.
// Queued values are returned first, then sequential "id-N" values.
type MockIDs struct {
	Queued []string
	next   int
}

// Ensure MockIDs implements Generator
var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a new MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{}
}

// New returns the next queued ID, or a generated sequential one
func (g *MockIDs) New() string {
	g.next++
	if len(g.Queued) > 0 {
		id := g.Queued[0]
		g.Queued = g.Queued[1:]
		return id
	}
	return fmt.Sprintf("id-%d", g.next)
}

// Queue adds values to the ID queue
func (g *MockIDs) Queue(values ...string) {
	g.Queued = append(g.Queued, values...)
}
