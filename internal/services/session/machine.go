package session

import (
	"time"

	"github.com/mcoot/impostor/internal/dependencies/random"
	"github.com/mcoot/impostor/internal/model"
	"github.com/mcoot/impostor/internal/services/categories"
	"github.com/mcoot/impostor/internal/services/roles"
	"github.com/mcoot/impostor/internal/services/roster"
)

// Machine applies session transitions to a *model.Session.
// It performs no I/O; every method either fully applies or leaves the session untouched.
type Machine struct {
	roster     *roster.Service
	categories *categories.Service
	random     random.Random
}

// NewMachine creates a new Machine
func NewMachine(roster *roster.Service, categories *categories.Service, random random.Random) *Machine {
	return &Machine{
		roster:     roster,
		categories: categories,
		random:     random,
	}
}

// NewSession returns a fresh session in SETUP with every category selected
func (m *Machine) NewSession(id model.SessionID, now time.Time) *model.Session {
	return &model.Session{
		ID:            id,
		Phase:         model.PhaseSetup,
		Categories:    m.categories.NewSelection(),
		ImpostorCount: model.DefaultImpostorCount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Categories returns the category catalogue the machine was built with
func (m *Machine) Categories() []string {
	return m.categories.Catalogue()
}

func requirePhase(s *model.Session, action string, phase model.Phase) error {
	if s.Phase != phase {
		return &model.PhaseError{Action: action, Phase: s.Phase}
	}
	return nil
}

func transition(s *model.Session, action string, to model.Phase) error {
	if !s.Phase.CanTransitionTo(to) {
		return &model.PhaseError{Action: action, Phase: s.Phase}
	}
	s.Phase = to
	return nil
}

// Setup actions

// AddPlayer appends a player to the roster
func (m *Machine) AddPlayer(s *model.Session, name string) (model.Player, error) {
	if err := requirePhase(s, "add player", model.PhaseSetup); err != nil {
		return model.Player{}, err
	}
	return m.roster.Add(s, name)
}

// RemovePlayer removes a player from the roster, reporting whether one was removed
func (m *Machine) RemovePlayer(s *model.Session, id model.PlayerID) (bool, error) {
	if err := requirePhase(s, "remove player", model.PhaseSetup); err != nil {
		return false, err
	}
	return m.roster.Remove(s, id), nil
}

// ToggleCategory flips a category in the selection
func (m *Machine) ToggleCategory(s *model.Session, name string) error {
	if err := requirePhase(s, "toggle category", model.PhaseSetup); err != nil {
		return err
	}
	return m.categories.Toggle(&s.Categories, name)
}

// SelectAllCategories selects every known category
func (m *Machine) SelectAllCategories(s *model.Session) error {
	if err := requirePhase(s, "select all categories", model.PhaseSetup); err != nil {
		return err
	}
	m.categories.SelectAll(&s.Categories)
	return nil
}

// SelectNoCategories clears the category selection
func (m *Machine) SelectNoCategories(s *model.Session) error {
	if err := requirePhase(s, "select no categories", model.PhaseSetup); err != nil {
		return err
	}
	m.categories.SelectNone(&s.Categories)
	return nil
}

// SetImpostorCount sets the number of impostors for the next round.
// The upper bound depends on the roster and is checked when the round starts.
func (m *Machine) SetImpostorCount(s *model.Session, count int) error {
	if err := requirePhase(s, "set impostor count", model.PhaseSetup); err != nil {
		return err
	}
	if count < 1 {
		return model.ErrImpostorCountOutOfRange
	}
	s.ImpostorCount = count
	return nil
}

// SetModifiers replaces the round modifiers
func (m *Machine) SetModifiers(s *model.Session, mods model.Modifiers) error {
	if err := requirePhase(s, "set modifiers", model.PhaseSetup); err != nil {
		return err
	}
	s.Modifiers = mods
	return nil
}

// ValidateStart checks every precondition for starting a round without mutating anything
func ValidateStart(s *model.Session) error {
	if err := requirePhase(s, "start round", model.PhaseSetup); err != nil {
		return err
	}
	n := len(s.Players)
	if n < model.MinPlayers {
		return model.ErrNotEnoughPlayers
	}
	if s.ImpostorCount < 1 || s.ImpostorCount >= n || s.ImpostorCount > roles.MaxImpostors(n) {
		return model.ErrImpostorCountOutOfRange
	}
	if s.Categories.IsEmpty() {
		return model.ErrNoCategories
	}
	return nil
}

// BeginRound moves SETUP to LOADING: assigns roles, clears reveal progress
// and picks the category to request content for.
func (m *Machine) BeginRound(s *model.Session) (string, error) {
	if err := ValidateStart(s); err != nil {
		return "", err
	}

	impostors, err := roles.Assign(m.random, len(s.Players), s.ImpostorCount)
	if err != nil {
		return "", err
	}
	category, err := m.categories.Pick(&s.Categories, m.random)
	if err != nil {
		return "", err
	}

	if err := roles.Apply(s.Players, impostors); err != nil {
		return "", err
	}
	for i := range s.Players {
		s.Players[i].HasSeenRole = false
	}
	s.Round = nil
	s.RevealCursor = nil
	s.PanelOpen = false
	s.UsedFallback = false
	s.RoundNumber++
	s.Phase = model.PhaseLoading

	return category, nil
}

// CompleteRound moves LOADING to REVEAL with the generated content
func (m *Machine) CompleteRound(s *model.Session, data model.RoundData, usedFallback bool) error {
	if err := transition(s, "complete round", model.PhaseReveal); err != nil {
		return err
	}
	s.Round = &data
	s.UsedFallback = usedFallback
	s.RevealCursor = nil
	s.PanelOpen = false
	return nil
}

// AbortRound moves LOADING back to SETUP after a content failure.
// Role flags from the aborted attempt are left in place; the next start recomputes them.
func (m *Machine) AbortRound(s *model.Session) error {
	if err := requirePhase(s, "abort round", model.PhaseLoading); err != nil {
		return err
	}
	if err := transition(s, "abort round", model.PhaseSetup); err != nil {
		return err
	}
	s.Round = nil
	s.RevealCursor = nil
	s.PanelOpen = false
	return nil
}

// EndDebate moves PLAYING to RESULT
func (m *Machine) EndDebate(s *model.Session) error {
	return transition(s, "end debate", model.PhaseResult)
}

// Reset moves RESULT back to SETUP. The roster and round are cleared,
// the impostor count returns to its default, and categories and modifiers are kept.
func (m *Machine) Reset(s *model.Session) error {
	if err := requirePhase(s, "reset", model.PhaseResult); err != nil {
		return err
	}
	if err := transition(s, "reset", model.PhaseSetup); err != nil {
		return err
	}
	m.roster.Clear(s)
	s.Round = nil
	s.RevealCursor = nil
	s.PanelOpen = false
	s.UsedFallback = false
	s.ImpostorCount = model.DefaultImpostorCount
	return nil
}
