package model

import (
	"fmt"
	"slices"
	"time"
)

// SessionID identifies the single session a process hosts
type SessionID string

// DefaultImpostorCount is the impostor count a fresh or reset session starts with
const DefaultImpostorCount = 1

// MinPlayers is the smallest roster a round can start with
const MinPlayers = 3

// CategorySelection is the set of topic categories eligible for the next round.
// Selected is always kept in the order of Available.
type CategorySelection struct {
	Available []string `json:"available"`
	Selected  []string `json:"selected"`
}

// Contains reports whether the category is currently selected
func (c *CategorySelection) Contains(name string) bool {
	return slices.Contains(c.Selected, name)
}

// IsKnown reports whether the category is part of the catalogue
func (c *CategorySelection) IsKnown(name string) bool {
	return slices.Contains(c.Available, name)
}

// IsEmpty returns true if no category is selected
func (c *CategorySelection) IsEmpty() bool {
	return len(c.Selected) == 0
}

// Session is the complete state of one pass-around game
type Session struct {
	ID            SessionID         `json:"id"`
	Phase         Phase             `json:"phase"`
	Players       []Player          `json:"players"`
	Categories    CategorySelection `json:"categories"`
	ImpostorCount int               `json:"impostor_count"`
	Modifiers     Modifiers         `json:"modifiers"`

	// Round state, nil outside an active round
	Round        *RoundData `json:"round,omitempty"`
	RoundNumber  int        `json:"round_number"`
	UsedFallback bool       `json:"used_fallback"`

	// Reveal sequencing
	RevealCursor *PlayerID `json:"reveal_cursor,omitempty"`
	PanelOpen    bool      `json:"panel_open"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetPlayer returns the player with the given ID, or nil if not found
func (s *Session) GetPlayer(id PlayerID) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// RevealingPlayer returns the player under the reveal cursor, or nil
func (s *Session) RevealingPlayer() *Player {
	if s.RevealCursor == nil {
		return nil
	}
	return s.GetPlayer(*s.RevealCursor)
}

// AllSeen returns true if every player has acknowledged their role
func (s *Session) AllSeen() bool {
	for _, p := range s.Players {
		if !p.HasSeenRole {
			return false
		}
	}
	return true
}

// SeenCount returns how many players have acknowledged their role
func (s *Session) SeenCount() int {
	count := 0
	for _, p := range s.Players {
		if p.HasSeenRole {
			count++
		}
	}
	return count
}

// Impostors returns the players assigned the impostor role
func (s *Session) Impostors() []Player {
	var impostors []Player
	for _, p := range s.Players {
		if p.IsImpostor {
			impostors = append(impostors, p)
		}
	}
	return impostors
}

// Clone returns a deep copy safe to hand outside the controller
func (s *Session) Clone() *Session {
	c := *s
	c.Players = slices.Clone(s.Players)
	c.Categories.Available = slices.Clone(s.Categories.Available)
	c.Categories.Selected = slices.Clone(s.Categories.Selected)
	if s.Round != nil {
		round := *s.Round
		c.Round = &round
	}
	if s.RevealCursor != nil {
		cursor := *s.RevealCursor
		c.RevealCursor = &cursor
	}
	return &c
}

// Validate checks the structural invariants that must hold between transitions
func (s *Session) Validate() error {
	if !s.Phase.IsValid() {
		return fmt.Errorf("unknown phase %q", s.Phase)
	}

	inRound := s.Phase == PhaseReveal || s.Phase == PhasePlaying || s.Phase == PhaseResult
	if inRound {
		if s.Round == nil {
			return fmt.Errorf("phase %s requires round data", s.Phase)
		}
		if got := len(s.Impostors()); got != s.ImpostorCount {
			return fmt.Errorf("expected %d impostors, found %d", s.ImpostorCount, got)
		}
	}

	if s.RevealCursor != nil {
		if s.Phase != PhaseReveal {
			return fmt.Errorf("reveal cursor set outside %s", PhaseReveal)
		}
		if s.RevealingPlayer() == nil {
			return fmt.Errorf("reveal cursor points at unknown player %q", *s.RevealCursor)
		}
	}
	if s.PanelOpen && s.RevealCursor == nil {
		return fmt.Errorf("role panel open without a player selected")
	}

	if (s.Phase == PhasePlaying || s.Phase == PhaseResult) && !s.AllSeen() {
		return fmt.Errorf("phase %s reached before every player saw their role", s.Phase)
	}

	return nil
}
