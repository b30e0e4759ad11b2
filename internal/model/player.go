package model

// PlayerID uniquely identifies a player within a session
type PlayerID string

// MaxPlayerNameLength is the longest display name accepted, in runes
const MaxPlayerNameLength = 32

// Player represents one person sharing the device.
// IsImpostor is only written by role assignment at round start and
// HasSeenRole only by the reveal sequencer.
type Player struct {
	ID          PlayerID `json:"id"`
	Name        string   `json:"name"`
	IsImpostor  bool     `json:"is_impostor"`
	HasSeenRole bool     `json:"has_seen_role"`
}
