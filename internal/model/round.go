package model

// RoundData is the content generated for a single round.
// It is immutable once produced and replaced wholesale by the next round.
type RoundData struct {
	Category     string `json:"category"`
	SecretWord   string `json:"secret_word"`
	ImpostorHint string `json:"impostor_hint"`
}

// Modifiers are round-wide toggles that only affect what impostors see
type Modifiers struct {
	HideCategory bool `json:"hide_category"`
	HideHint     bool `json:"hide_hint"`
}

// RoleView is what the player currently being revealed is allowed to see.
// Empty fields are hidden, not missing.
type RoleView struct {
	PlayerID   PlayerID `json:"player_id"`
	PlayerName string   `json:"player_name"`
	PanelOpen  bool     `json:"panel_open"`

	// The fields below are only populated while the panel is open
	IsImpostor     bool   `json:"is_impostor,omitempty"`
	Category       string `json:"category,omitempty"`
	CategoryHidden bool   `json:"category_hidden,omitempty"`
	SecretWord     string `json:"secret_word,omitempty"`
	Hint           string `json:"hint,omitempty"`
}

// ResultView discloses the outcome of a round once debate has ended
type ResultView struct {
	Category   string   `json:"category"`
	SecretWord string   `json:"secret_word"`
	Impostors  []Player `json:"impostors"`
}
