package roster

import (
	"strings"
	"unicode/utf8"

	"github.com/mcoot/impostor/internal/dependencies/ids"
	"github.com/mcoot/impostor/internal/model"
)

// ServiceInterface defines the roster operations used by the session machine
type ServiceInterface interface {
	Add(s *model.Session, name string) (model.Player, error)
	Remove(s *model.Session, id model.PlayerID) bool
	Clear(s *model.Session)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)

// Service maintains the ordered list of players in a session
type Service struct {
	ids ids.Generator
}

// New creates a new roster Service
func New(ids ids.Generator) *Service {
	return &Service{ids: ids}
}

// ValidateName trims a display name and checks it is usable
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.ErrEmptyPlayerName
	}
	if utf8.RuneCountInString(name) > model.MaxPlayerNameLength {
		return "", model.ErrPlayerNameTooLong
	}
	return name, nil
}

// Add appends a new player with a fresh ID. Duplicate names are allowed.
func (r *Service) Add(s *model.Session, name string) (model.Player, error) {
	name, err := ValidateName(name)
	if err != nil {
		return model.Player{}, err
	}

	player := model.Player{
		ID:   model.PlayerID(r.ids.New()),
		Name: name,
	}
	s.Players = append(s.Players, player)
	return player, nil
}

// Remove deletes the player with the given ID, keeping the order of the rest.
// It returns false when no such player exists.
func (r *Service) Remove(s *model.Session, id model.PlayerID) bool {
	for i, p := range s.Players {
		if p.ID == id {
			s.Players = append(s.Players[:i:i], s.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the roster
func (r *Service) Clear(s *model.Session) {
	s.Players = nil
}
