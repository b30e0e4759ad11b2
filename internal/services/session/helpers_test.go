package session

import (
	"time"

	"github.com/mcoot/impostor/internal/dependencies/mocks"
	"github.com/mcoot/impostor/internal/model"
	"github.com/mcoot/impostor/internal/services/categories"
	"github.com/mcoot/impostor/internal/services/roster"
)

var (
	testNow        = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	testCategories = []string{"Animals", "Food", "Movies"}
	testRound      = model.RoundData{Category: "Animals", SecretWord: "Giraffe", ImpostorHint: "Tall and spotted"}
)

func newTestMachine(rnd *mocks.MockRandom) *Machine {
	return NewMachine(
		roster.New(mocks.NewMockIDs()),
		categories.New(testCategories),
		rnd,
	)
}

// setupSession returns a SETUP session with the named players, whose IDs are their names
func setupSession(m *Machine, names ...string) *model.Session {
	s := m.NewSession("session-1", testNow)
	for _, name := range names {
		s.Players = append(s.Players, model.Player{ID: model.PlayerID(name), Name: name})
	}
	return s
}

// revealSession returns a session in REVEAL. With an empty random queue the
// first player is the only impostor.
func revealSession(m *Machine, names ...string) *model.Session {
	s := setupSession(m, names...)
	if _, err := m.BeginRound(s); err != nil {
		panic(err)
	}
	if err := m.CompleteRound(s, testRound, false); err != nil {
		panic(err)
	}
	return s
}

func ackAll(m *Machine, s *model.Session) {
	for _, p := range s.Players {
		if err := m.SelectForReveal(s, p.ID); err != nil {
			panic(err)
		}
		if _, _, err := m.Acknowledge(s); err != nil {
			panic(err)
		}
	}
}
