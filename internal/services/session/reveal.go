package session

import (
	"github.com/mcoot/impostor/internal/model"
)

// SelectForReveal puts a player under the reveal cursor with the role panel closed.
// Selecting a player who has already seen their role changes nothing.
func (m *Machine) SelectForReveal(s *model.Session, id model.PlayerID) error {
	if err := requirePhase(s, "select for reveal", model.PhaseReveal); err != nil {
		return err
	}
	player := s.GetPlayer(id)
	if player == nil {
		return model.ErrPlayerNotFound
	}
	if player.HasSeenRole {
		return nil
	}

	cursor := id
	s.RevealCursor = &cursor
	s.PanelOpen = false
	return nil
}

// OpenPanel shows the role of the player under the cursor
func (m *Machine) OpenPanel(s *model.Session) error {
	if err := requirePhase(s, "open role panel", model.PhaseReveal); err != nil {
		return err
	}
	if s.RevealCursor == nil {
		return model.ErrNoPlayerSelected
	}
	s.PanelOpen = true
	return nil
}

// CloseReveal backs out of a reveal without acknowledging it
func (m *Machine) CloseReveal(s *model.Session) error {
	if err := requirePhase(s, "close reveal", model.PhaseReveal); err != nil {
		return err
	}
	s.RevealCursor = nil
	s.PanelOpen = false
	return nil
}

// Acknowledge marks the player under the cursor as having seen their role
// and clears the cursor. When that was the last unseen player the session
// advances to PLAYING and advanced is true.
func (m *Machine) Acknowledge(s *model.Session) (advanced bool, acknowledged model.PlayerID, err error) {
	if err := requirePhase(s, "acknowledge role", model.PhaseReveal); err != nil {
		return false, "", err
	}
	player := s.RevealingPlayer()
	if player == nil {
		return false, "", model.ErrNoPlayerSelected
	}

	player.HasSeenRole = true
	acknowledged = player.ID
	s.RevealCursor = nil
	s.PanelOpen = false

	// Guard runs against the state after the acknowledgment above
	if !s.AllSeen() {
		return false, acknowledged, nil
	}
	if err := transition(s, "acknowledge role", model.PhasePlaying); err != nil {
		return false, acknowledged, err
	}
	return true, acknowledged, nil
}
