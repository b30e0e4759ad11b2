package clock

import "time"

// Clock stamps session updates
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in UTC so stored snapshots compare equal
// across hosts
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time in UTC
func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}
