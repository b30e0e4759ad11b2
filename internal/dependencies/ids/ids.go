package ids

import "github.com/google/uuid"

// Generator produces unique identifiers and can be mocked for testing
type Generator interface {
	New() string
}

// UUIDGenerator implements Generator with random (v4) UUIDs
type UUIDGenerator struct{}

var _ Generator = (*UUIDGenerator)(nil)

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// New returns a fresh UUID string
func (g *UUIDGenerator) New() string {
	return uuid.NewString()
}
