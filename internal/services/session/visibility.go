package session

import (
	"github.com/mcoot/impostor/internal/model"
)

// RevealView computes what the player under the reveal cursor may see.
// It returns nil when nobody is being revealed.
func RevealView(s *model.Session) *model.RoleView {
	if s.Phase != model.PhaseReveal || s.Round == nil {
		return nil
	}
	player := s.RevealingPlayer()
	if player == nil {
		return nil
	}

	view := &model.RoleView{
		PlayerID:   player.ID,
		PlayerName: player.Name,
		PanelOpen:  s.PanelOpen,
	}
	if !s.PanelOpen {
		return view
	}

	view.IsImpostor = player.IsImpostor
	if !player.IsImpostor {
		view.Category = s.Round.Category
		view.SecretWord = s.Round.SecretWord
		return view
	}

	if s.Modifiers.HideCategory {
		view.CategoryHidden = true
	} else {
		view.Category = s.Round.Category
	}
	if !s.Modifiers.HideHint {
		view.Hint = s.Round.ImpostorHint
	}
	return view
}

// ResultView discloses the impostors and the secret word. It is only available in RESULT.
func ResultView(s *model.Session) (*model.ResultView, error) {
	if err := requirePhase(s, "view result", model.PhaseResult); err != nil {
		return nil, err
	}
	return &model.ResultView{
		Category:   s.Round.Category,
		SecretWord: s.Round.SecretWord,
		Impostors:  s.Impostors(),
	}, nil
}

// Public returns a copy of the session with every secret removed.
// In RESULT the round is disclosed in full.
func Public(s *model.Session) *model.Session {
	c := s.Clone()
	if c.Phase == model.PhaseResult {
		return c
	}
	c.Round = nil
	for i := range c.Players {
		c.Players[i].IsImpostor = false
	}
	return c
}
