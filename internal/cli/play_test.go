package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/impostor/internal/factory"
	"github.com/mcoot/impostor/internal/model"
	"github.com/mcoot/impostor/internal/storage/memory"
)

func runGame(t *testing.T, app *factory.TestApp, players []string, script ...string) string {
	t.Helper()

	var out bytes.Buffer
	game := NewGame(app.Controller, strings.NewReader(strings.Join(script, "\n")+"\n"), &out)
	require.NoError(t, game.Run(context.Background(), players))
	return out.String()
}

func TestGamePlaysFullRound(t *testing.T) {
	app := factory.NewTestApp()

	out := runGame(t, app, []string{"Ann", "Ben", "Cat"},
		"start",
		"", "", // Ann
		"", "", // Ben
		"", "", // Cat
		"",  // end debate
		"q", // leave after the result
	)

	// The first player is the impostor when no random values are queued
	assert.Equal(t, 1, strings.Count(out, "You are the IMPOSTOR."))
	assert.Equal(t, 2, strings.Count(out, "You are NOT the impostor."))
	assert.Contains(t, out, "Pass the device to Ann")
	assert.Contains(t, out, "Pass the device to Cat")
	assert.Contains(t, out, "Secret word: word")
	assert.Contains(t, out, "Impostors: Ann")
	assert.Contains(t, out, "Bye!")

	state, err := app.Controller.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PhaseResult, state.Phase)
}

func TestGameSetupCommands(t *testing.T) {
	app := factory.NewTestApp()

	runGame(t, app, nil,
		"add Dan, Eve, Fay",
		"remove 1",
		"none",
		"toggle 2",
		"toggle Movies",
		"impostors 2",
		"hide-hint",
		"quit",
	)

	state, err := app.Controller.State(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(state.Players))
	for _, p := range state.Players {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Eve", "Fay"}, names)
	assert.Equal(t, []string{"Food", "Movies"}, state.Categories.Selected)
	assert.Equal(t, 2, state.ImpostorCount)
	assert.True(t, state.Modifiers.HideHint)
	assert.False(t, state.Modifiers.HideCategory)
}

func TestGameReportsRejectedStart(t *testing.T) {
	app := factory.NewTestApp()

	out := runGame(t, app, []string{"Ann", "Ben"}, "start", "quit")

	assert.Contains(t, out, "! at least 3 players are required")

	state, err := app.Controller.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PhaseSetup, state.Phase)
}

func TestGameReportsFallbackContent(t *testing.T) {
	app := factory.NewTestApp()
	app.MockProvider.QueueError(assert.AnError)

	out := runGame(t, app, []string{"Ann", "Ben", "Cat"}, "start", "quit")

	assert.Contains(t, out, "using fallback content")

	state, err := app.Controller.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PhaseReveal, state.Phase)
}

func TestGameStrictProviderFailureStaysInSetup(t *testing.T) {
	app := factory.NewTestApp(factory.WithStrictContent())
	app.MockProvider.QueueError(assert.AnError)

	out := runGame(t, app, []string{"Ann", "Ben", "Cat"}, "start", "quit")

	assert.Contains(t, out, "! Could not generate round content")

	state, err := app.Controller.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PhaseSetup, state.Phase)
}

func TestGamePlayAgainKeepsPlayers(t *testing.T) {
	app := factory.NewTestApp()

	runGame(t, app, []string{"Ann", "Ben", "Cat"},
		"start",
		"", "", "", "", "", "",
		"",
		"y",
		"quit",
	)

	state, err := app.Controller.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PhaseSetup, state.Phase)
	require.Len(t, state.Players, 3)
	assert.Equal(t, "Ann", state.Players[0].Name)
	assert.Nil(t, state.Round)
}

func TestGamePlayAgainWithNewPlayers(t *testing.T) {
	app := factory.NewTestApp()

	runGame(t, app, []string{"Ann", "Ben", "Cat"},
		"start",
		"", "", "", "", "", "",
		"",
		"n",
		"quit",
	)

	state, err := app.Controller.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PhaseSetup, state.Phase)
	assert.Empty(t, state.Players)
}

func TestGameQuitsAtEndOfInput(t *testing.T) {
	app := factory.NewTestApp()

	var out bytes.Buffer
	game := NewGame(app.Controller, strings.NewReader(""), &out)

	require.NoError(t, game.Run(context.Background(), nil))
	assert.Contains(t, out.String(), "Bye!")
}

func TestGameClearsScreenBetweenPlayers(t *testing.T) {
	app := factory.NewTestApp()

	var out bytes.Buffer
	script := strings.Join([]string{"start", "", "", "quit"}, "\n")
	game := NewGame(app.Controller, strings.NewReader(script), &out)
	game.Clear = true

	require.NoError(t, game.Run(context.Background(), []string{"Ann", "Ben", "Cat"}))
	assert.Contains(t, out.String(), "\033[H\033[2J")
}

var errSelectFailed = errors.New("select failed")

// selectFailingStorage rejects every save that puts a player under the reveal cursor
type selectFailingStorage struct {
	*memory.Storage
}

func (s *selectFailingStorage) SaveSession(ctx context.Context, session *model.Session) error {
	if session.Phase == model.PhaseReveal && session.RevealCursor != nil {
		return errSelectFailed
	}
	return s.Storage.SaveSession(ctx, session)
}

func TestGameStopsWhenRevealCannotProceed(t *testing.T) {
	app := factory.NewTestApp(factory.WithStorage(&selectFailingStorage{Storage: memory.New()}))

	var out bytes.Buffer
	script := strings.Join([]string{"start", "", "", "quit"}, "\n")
	game := NewGame(app.Controller, strings.NewReader(script), &out)

	err := game.Run(context.Background(), []string{"Ann", "Ben", "Cat"})
	require.ErrorIs(t, err, errSelectFailed)
	assert.Contains(t, err.Error(), "Ann")
	assert.NotContains(t, out.String(), "Pass the device to")
}
