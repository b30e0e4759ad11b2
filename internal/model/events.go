package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Setup events
	EventPlayerAdded     EventType = "player_added"
	EventPlayerRemoved   EventType = "player_removed"
	EventSettingsChanged EventType = "settings_changed"

	// Round events
	EventPhaseChanged     EventType = "phase_changed"
	EventContentFallback  EventType = "content_fallback"
	EventRevealSelected   EventType = "reveal_selected"
	EventRevealOpened     EventType = "reveal_opened"
	EventRoleAcknowledged EventType = "role_acknowledged"
	EventSessionReset     EventType = "session_reset"
)

// Event describes a state change. Payloads never carry secret round content.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	SessionID SessionID `json:"session_id"`
	Phase     Phase     `json:"phase"`
	PlayerID  PlayerID  `json:"player_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}

// PhaseChangedPayload contains data for phase changed events
type PhaseChangedPayload struct {
	From Phase `json:"from"`
	To   Phase `json:"to"`
}

// PlayerPayload contains data for roster events
type PlayerPayload struct {
	PlayerID PlayerID `json:"player_id"`
	Name     string   `json:"name"`
}

// SettingsPayload contains the setup options after a change
type SettingsPayload struct {
	ImpostorCount int       `json:"impostor_count"`
	Modifiers     Modifiers `json:"modifiers"`
	Selected      []string  `json:"selected_categories"`
}

// ContentFallbackPayload records that canned content replaced a failed request
type ContentFallbackPayload struct {
	RequestedCategory string `json:"requested_category"`
	Reason            string `json:"reason"`
}

// AcknowledgedPayload contains reveal progress after an acknowledgment
type AcknowledgedPayload struct {
	Seen  int `json:"seen"`
	Total int `json:"total"`
}
