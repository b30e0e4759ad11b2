package response

import (
	"time"

	"github.com/mcoot/impostor/internal/model"
	"github.com/mcoot/impostor/internal/services/roles"
	"github.com/mcoot/impostor/internal/services/session"
)

// Player represents a roster entry in API responses
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HasSeenRole bool   `json:"has_seen_role"`

	// Only disclosed once the round is over
	IsImpostor *bool `json:"is_impostor,omitempty"`
}

// Categories represents the category catalogue and current selection
type Categories struct {
	Available []string `json:"available"`
	Selected  []string `json:"selected"`
}

// Reveal represents the public reveal progress
type Reveal struct {
	PlayerID  *string `json:"player_id,omitempty"`
	PanelOpen bool    `json:"panel_open"`
	Seen      int     `json:"seen"`
	Total     int     `json:"total"`
}

// Round represents round content, only present in RESULT
type Round struct {
	Category     string `json:"category"`
	SecretWord   string `json:"secret_word"`
	ImpostorHint string `json:"impostor_hint"`
}

// Session represents the session state visible to everyone at the device
type Session struct {
	ID              string          `json:"id"`
	Phase           string          `json:"phase"`
	RoundNumber     int             `json:"round_number"`
	Players         []Player        `json:"players"`
	Categories      Categories      `json:"categories"`
	ImpostorCount   int             `json:"impostor_count"`
	ImpostorOptions []int           `json:"impostor_options"`
	Modifiers       model.Modifiers `json:"modifiers"`
	Reveal          *Reveal         `json:"reveal,omitempty"`
	UsedFallback    bool            `json:"used_fallback"`
	Round           *Round          `json:"round,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SessionFromModel converts a model.Session, dropping every secret before RESULT
func SessionFromModel(s *model.Session) Session {
	pub := session.Public(s)
	disclose := pub.Phase == model.PhaseResult

	players := make([]Player, 0, len(pub.Players))
	for _, p := range pub.Players {
		player := Player{
			ID:          string(p.ID),
			Name:        p.Name,
			HasSeenRole: p.HasSeenRole,
		}
		if disclose {
			isImpostor := p.IsImpostor
			player.IsImpostor = &isImpostor
		}
		players = append(players, player)
	}

	resp := Session{
		ID:          string(pub.ID),
		Phase:       pub.Phase.String(),
		RoundNumber: pub.RoundNumber,
		Players:     players,
		Categories: Categories{
			Available: nonNil(pub.Categories.Available),
			Selected:  nonNil(pub.Categories.Selected),
		},
		ImpostorCount:   pub.ImpostorCount,
		ImpostorOptions: roles.ImpostorOptions(len(pub.Players)),
		Modifiers:       pub.Modifiers,
		UsedFallback:    pub.UsedFallback,
		UpdatedAt:       pub.UpdatedAt,
	}

	if pub.Phase == model.PhaseReveal {
		reveal := &Reveal{
			PanelOpen: pub.PanelOpen,
			Seen:      pub.SeenCount(),
			Total:     len(pub.Players),
		}
		if pub.RevealCursor != nil {
			id := string(*pub.RevealCursor)
			reveal.PlayerID = &id
		}
		resp.Reveal = reveal
	}

	if disclose && pub.Round != nil {
		resp.Round = &Round{
			Category:     pub.Round.Category,
			SecretWord:   pub.Round.SecretWord,
			ImpostorHint: pub.Round.ImpostorHint,
		}
	}

	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// RevealResponse wraps the current role view, which is null when nobody is selected
type RevealResponse struct {
	View *model.RoleView `json:"view"`
}

// Result represents the disclosed outcome of a round
type Result struct {
	Category   string   `json:"category"`
	SecretWord string   `json:"secret_word"`
	Impostors  []Player `json:"impostors"`
}

// ResultFromModel converts a model.ResultView
func ResultFromModel(r *model.ResultView) Result {
	impostors := make([]Player, 0, len(r.Impostors))
	for _, p := range r.Impostors {
		isImpostor := true
		impostors = append(impostors, Player{
			ID:          string(p.ID),
			Name:        p.Name,
			HasSeenRole: p.HasSeenRole,
			IsImpostor:  &isImpostor,
		})
	}
	return Result{
		Category:   r.Category,
		SecretWord: r.SecretWord,
		Impostors:  impostors,
	}
}

// StartRoundResponse is returned when a round starts
type StartRoundResponse struct {
	Session      Session `json:"session"`
	UsedFallback bool    `json:"used_fallback"`
}

// AcknowledgeResponse is returned after a role acknowledgment
type AcknowledgeResponse struct {
	Session  Session `json:"session"`
	Advanced bool    `json:"advanced"`
}

// CategoriesResponse lists the category catalogue
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// ImpostorOptionsResponse lists the impostor counts available for a roster size
type ImpostorOptionsResponse struct {
	Players      int   `json:"players"`
	Options      []int `json:"options"`
	MaxImpostors int   `json:"max_impostors"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	Phase     string `json:"phase,omitempty"`
}
