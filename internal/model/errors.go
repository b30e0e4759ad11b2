package model

import (
	"errors"
	"fmt"
)

// Error kinds, matched with errors.Is
var (
	ErrValidation   = errors.New("validation failed")
	ErrProvider     = errors.New("content provider failed")
	ErrInvalidPhase = errors.New("action not allowed in current phase")
)

// Validation errors reported back to the facilitator
var (
	ErrEmptyPlayerName         = NewValidationError("name", "player name must not be empty")
	ErrPlayerNameTooLong       = NewValidationError("name", fmt.Sprintf("player name must be at most %d characters", MaxPlayerNameLength))
	ErrNotEnoughPlayers        = NewValidationError("players", fmt.Sprintf("at least %d players are required", MinPlayers))
	ErrImpostorCountOutOfRange = NewValidationError("impostor_count", "impostor count is out of range for this roster")
	ErrNoCategories            = NewValidationError("categories", "select at least one category")
	ErrUnknownCategory         = NewValidationError("categories", "unknown category")
)

// Lookup errors
var (
	ErrPlayerNotFound   = errors.New("player not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoPlayerSelected = errors.New("no player selected for reveal")
)

// ValidationError is a precondition failure on a user-facing action.
// State is never changed when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes every ValidationError match ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ProviderError wraps any failure to obtain round content
type ProviderError struct {
	Category string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("generating content for %q: %v", e.Category, e.Err)
}

// Unwrap returns the underlying cause
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is makes every ProviderError match ErrProvider
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// PhaseError reports an action attempted in the wrong phase
type PhaseError struct {
	Action string
	Phase  Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s is not allowed during %s", e.Action, e.Phase)
}

// Is makes every PhaseError match ErrInvalidPhase
func (e *PhaseError) Is(target error) bool {
	return target == ErrInvalidPhase
}
