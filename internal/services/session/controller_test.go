package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/impostor/internal/dependencies/mocks"
	"github.com/mcoot/impostor/internal/model"
	"github.com/mcoot/impostor/internal/services/content"
	"github.com/mcoot/impostor/internal/storage"
	"github.com/mcoot/impostor/internal/storage/memory"
	"github.com/mcoot/impostor/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	provider   *mocks.MockProvider
	publisher  *mocks.MockPublisher
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(testNow)
	s.random = mocks.NewMockRandom()
	s.provider = mocks.NewMockProvider()
	s.publisher = mocks.NewMockPublisher()
	s.ctx = context.Background()
	s.controller = s.newController(Config{}, time.Second)

	_, err := s.controller.Open(s.ctx, "session-1")
	s.Require().NoError(err)
	s.publisher.Reset()
}

func (s *ControllerSuite) newController(cfg Config, timeout time.Duration) *Controller {
	return NewController(
		s.storage,
		newTestMachine(s.random),
		content.NewAdapter(s.provider, timeout, testutil.NopLogger()),
		s.publisher,
		s.clock,
		testutil.NopLogger(),
		cfg,
	)
}

func (s *ControllerSuite) controllerWithStorage(st storage.Storage) *Controller {
	c := NewController(
		st,
		newTestMachine(s.random),
		content.NewAdapter(s.provider, time.Second, testutil.NopLogger()),
		s.publisher,
		s.clock,
		testutil.NopLogger(),
		Config{},
	)
	_, err := c.Open(s.ctx, "session-1")
	s.Require().NoError(err)
	return c
}

var errSaveFailed = errors.New("save failed")

// flakyStorage fails saves of sessions in one phase a fixed number of times
type flakyStorage struct {
	*memory.Storage
	failPhase model.Phase
	failures  int
	// expire drops the stored session when a save fails
	expire bool
}

func (f *flakyStorage) SaveSession(ctx context.Context, session *model.Session) error {
	if session.Phase == f.failPhase && f.failures > 0 {
		f.failures--
		if f.expire {
			_ = f.Storage.DeleteSession(ctx, session.ID)
		}
		return errSaveFailed
	}
	return f.Storage.SaveSession(ctx, session)
}

func (s *ControllerSuite) addPlayers(names ...string) []model.Player {
	var players []model.Player
	for _, name := range names {
		p, err := s.controller.AddPlayer(s.ctx, name)
		s.Require().NoError(err)
		players = append(players, p)
	}
	return players
}

func (s *ControllerSuite) phase() model.Phase {
	state, err := s.controller.State(s.ctx)
	s.Require().NoError(err)
	return state.Phase
}

// Open / State tests

func (s *ControllerSuite) TestOpenCreatesFreshSession() {
	state, err := s.controller.State(s.ctx)
	s.Require().NoError(err)

	s.Equal(model.SessionID("session-1"), state.ID)
	s.Equal(model.PhaseSetup, state.Phase)
	s.Equal(testNow, state.CreatedAt)
	s.Equal(testCategories, state.Categories.Selected)
}

func (s *ControllerSuite) TestStateBeforeOpen() {
	c := s.newController(Config{}, time.Second)
	_, err := c.State(s.ctx)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ControllerSuite) TestOpenReplacesPreviousSession() {
	s.addPlayers("A")
	_, err := s.controller.Open(s.ctx, "session-2")
	s.Require().NoError(err)

	state, err := s.controller.State(s.ctx)
	s.Require().NoError(err)
	s.Empty(state.Players)

	_, err = s.storage.GetSession(s.ctx, "session-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ControllerSuite) TestStateIsASnapshot() {
	s.addPlayers("A")
	state, err := s.controller.State(s.ctx)
	s.Require().NoError(err)
	state.Players[0].Name = "Mallory"

	again, err := s.controller.State(s.ctx)
	s.Require().NoError(err)
	s.Equal("A", again.Players[0].Name)
}

// Setup tests

func (s *ControllerSuite) TestAddPlayerPersistsAndPublishes() {
	s.clock.Advance(time.Minute)
	players := s.addPlayers("Alice")

	state, err := s.controller.State(s.ctx)
	s.Require().NoError(err)
	s.Equal(players, state.Players)
	s.Equal(testNow.Add(time.Minute), state.UpdatedAt)

	s.Equal([]model.EventType{model.EventPlayerAdded}, s.publisher.Types())
	s.Equal(players[0].ID, s.publisher.Events()[0].PlayerID)
}

func (s *ControllerSuite) TestAddPlayerValidationChangesNothing() {
	_, err := s.controller.AddPlayer(s.ctx, "  ")
	s.ErrorIs(err, model.ErrValidation)

	state, err := s.controller.State(s.ctx)
	s.Require().NoError(err)
	s.Empty(state.Players)
	s.Equal(testNow, state.UpdatedAt)
	s.Empty(s.publisher.Events())
}

func (s *ControllerSuite) TestRemovePlayer() {
	players := s.addPlayers("A", "B")
	s.publisher.Reset()

	s.Require().NoError(s.controller.RemovePlayer(s.ctx, players[0].ID))
	s.Require().NoError(s.controller.RemovePlayer(s.ctx, "missing"))

	state, err := s.controller.State(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(state.Players, 1)
	s.Equal("B", state.Players[0].Name)
	s.Equal([]model.EventType{model.EventPlayerRemoved}, s.publisher.Types())
}

func (s *ControllerSuite) TestCategoryOperations() {
	s.Require().NoError(s.controller.SelectNoCategories(s.ctx))
	s.Require().NoError(s.controller.ToggleCategory(s.ctx, "Food"))

	state, err := s.controller.State(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Food"}, state.Categories.Selected)

	s.ErrorIs(s.controller.ToggleCategory(s.ctx, "Nope"), model.ErrUnknownCategory)

	s.Require().NoError(s.controller.SelectAllCategories(s.ctx))
	state, err = s.controller.State(s.ctx)
	s.Require().NoError(err)
	s.Equal(testCategories, state.Categories.Selected)

	s.Equal([]model.EventType{
		model.EventSettingsChanged,
		model.EventSettingsChanged,
		model.EventSettingsChanged,
	}, s.publisher.Types())
}

func (s *ControllerSuite) TestUpdateSettingsIsPartial() {
	count := 2
	hide := true
	state, err := s.controller.UpdateSettings(s.ctx, Settings{ImpostorCount: &count, HideHint: &hide})
	s.Require().NoError(err)
	s.Equal(2, state.ImpostorCount)
	s.Equal(model.Modifiers{HideHint: true}, state.Modifiers)

	s.Require().NoError(s.controller.SetModifiers(s.ctx, model.Modifiers{HideCategory: true}))
	state, err = s.controller.State(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, state.ImpostorCount)
	s.Equal(model.Modifiers{HideCategory: true}, state.Modifiers)
}

func (s *ControllerSuite) TestUpdateSettingsIsAtomic() {
	zero := 0
	hide := true
	_, err := s.controller.UpdateSettings(s.ctx, Settings{ImpostorCount: &zero, HideHint: &hide})
	s.ErrorIs(err, model.ErrImpostorCountOutOfRange)

	state, err := s.controller.State(s.ctx)
	s.Require().NoError(err)
	s.False(state.Modifiers.HideHint)
	s.Equal(1, state.ImpostorCount)
}

// StartRound tests

func (s *ControllerSuite) TestStartRoundEntersReveal() {
	s.addPlayers("A", "B", "C", "D")
	s.random.QueueIntn(1, 2)
	s.provider.QueueData(testRound)
	s.publisher.Reset()

	outcome, err := s.controller.StartRound(s.ctx)
	s.Require().NoError(err)

	s.False(outcome.UsedFallback)
	s.Equal(model.PhaseReveal, outcome.Session.Phase)
	s.Equal(testRound, *outcome.Session.Round)
	s.Equal([]string{"Movies"}, s.provider.Requested)
	s.Len(outcome.Session.Impostors(), 1)
	s.Equal("B", outcome.Session.Impostors()[0].Name)
	s.NoError(outcome.Session.Validate())

	evts := s.publisher.Events()
	s.Require().Len(evts, 2)
	s.Equal(model.PhaseChangedPayload{From: model.PhaseSetup, To: model.PhaseLoading}, evts[0].Payload)
	s.Equal(model.PhaseChangedPayload{From: model.PhaseLoading, To: model.PhaseReveal}, evts[1].Payload)
}

func (s *ControllerSuite) TestStartRoundValidationKeepsSetup() {
	s.addPlayers("A", "B")
	_, err := s.controller.StartRound(s.ctx)
	s.ErrorIs(err, model.ErrNotEnoughPlayers)
	s.Equal(model.PhaseSetup, s.phase())
	s.Empty(s.provider.Requested)
}

func (s *ControllerSuite) TestStartRoundFallsBackOnProviderError() {
	s.addPlayers("A", "B", "C")
	s.provider.QueueError(errors.New("boom"))
	s.publisher.Reset()

	outcome, err := s.controller.StartRound(s.ctx)
	s.Require().NoError(err)

	s.True(outcome.UsedFallback)
	s.True(outcome.Session.UsedFallback)
	s.Equal(model.PhaseReveal, outcome.Session.Phase)
	s.Equal(content.Fallback(), *outcome.Session.Round)
	s.Contains(s.publisher.Types(), model.EventContentFallback)
}

func (s *ControllerSuite) TestStartRoundFallsBackOnIncompleteContent() {
	s.addPlayers("A", "B", "C")
	s.provider.QueueData(model.RoundData{Category: "Animals", SecretWord: "Giraffe"})

	outcome, err := s.controller.StartRound(s.ctx)
	s.Require().NoError(err)
	s.True(outcome.UsedFallback)
}

func (s *ControllerSuite) TestStartRoundStrictReturnsToSetup() {
	s.controller = s.newController(Config{StrictContent: true}, time.Second)
	_, err := s.controller.Open(s.ctx, "session-1")
	s.Require().NoError(err)
	s.addPlayers("A", "B", "C")
	s.Require().NoError(s.controller.ToggleCategory(s.ctx, "Food"))
	s.provider.QueueError(errors.New("boom"))

	_, err = s.controller.StartRound(s.ctx)
	s.ErrorIs(err, model.ErrProvider)

	state, err := s.controller.State(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.PhaseSetup, state.Phase)
	s.Len(state.Players, 3)
	s.Equal([]string{"Animals", "Movies"}, state.Categories.Selected)
	s.Nil(state.Round)

	// Startable again
	outcome, err := s.controller.StartRound(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.PhaseReveal, outcome.Session.Phase)
}

func (s *ControllerSuite) TestStartRoundTimeoutUsesFallback() {
	s.controller = s.newController(Config{}, 20*time.Millisecond)
	_, err := s.controller.Open(s.ctx, "session-1")
	s.Require().NoError(err)
	s.addPlayers("A", "B", "C")
	s.provider.Block = make(chan struct{})

	outcome, err := s.controller.StartRound(s.ctx)
	s.Require().NoError(err)
	s.True(outcome.UsedFallback)
}

func (s *ControllerSuite) TestStartRoundSurvivesCallerCancellation() {
	s.addPlayers("A", "B", "C")
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	s.provider.QueueData(testRound)

	// The session lookup itself ignores the context in memory storage
	outcome, err := s.controller.StartRound(ctx)
	s.Require().NoError(err)
	s.False(outcome.UsedFallback)
}

func (s *ControllerSuite) TestStartRoundFailedSaveReturnsToSetup() {
	c := s.controllerWithStorage(&flakyStorage{Storage: s.storage, failPhase: model.PhaseReveal, failures: 1})
	for _, name := range []string{"A", "B", "C"} {
		_, err := c.AddPlayer(s.ctx, name)
		s.Require().NoError(err)
	}
	s.provider.QueueData(testRound)
	s.publisher.Reset()

	_, err := c.StartRound(s.ctx)
	s.ErrorIs(err, errSaveFailed)

	state, err := c.State(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.PhaseSetup, state.Phase)
	s.Nil(state.Round)
	s.Len(state.Players, 3)

	evts := s.publisher.Events()
	s.Require().Len(evts, 2)
	s.Equal(model.PhaseChangedPayload{From: model.PhaseSetup, To: model.PhaseLoading}, evts[0].Payload)
	s.Equal(model.PhaseChangedPayload{From: model.PhaseLoading, To: model.PhaseSetup}, evts[1].Payload)

	// Setup actions and a new round work again
	_, err = c.AddPlayer(s.ctx, "D")
	s.Require().NoError(err)
	s.provider.QueueData(testRound)
	outcome, err := c.StartRound(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.PhaseReveal, outcome.Session.Phase)
	s.Len(outcome.Session.Players, 4)
}

func (s *ControllerSuite) TestStartRoundExpiredSessionRestoredToSetup() {
	c := s.controllerWithStorage(&flakyStorage{Storage: s.storage, failPhase: model.PhaseReveal, failures: 1, expire: true})
	for _, name := range []string{"A", "B", "C"} {
		_, err := c.AddPlayer(s.ctx, name)
		s.Require().NoError(err)
	}
	s.provider.QueueData(testRound)

	_, err := c.StartRound(s.ctx)
	s.ErrorIs(err, errSaveFailed)

	state, err := c.State(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.PhaseSetup, state.Phase)
	s.Len(state.Players, 3)
}

func (s *ControllerSuite) TestActionsRejectedWhileLoading() {
	s.addPlayers("A", "B", "C")
	s.provider.Block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := s.controller.StartRound(s.ctx)
		done <- err
	}()

	s.Require().Eventually(func() bool {
		return s.phase() == model.PhaseLoading
	}, time.Second, 5*time.Millisecond)

	_, err := s.controller.StartRound(s.ctx)
	s.ErrorIs(err, model.ErrInvalidPhase)
	_, err = s.controller.AddPlayer(s.ctx, "D")
	s.ErrorIs(err, model.ErrInvalidPhase)
	s.ErrorIs(s.controller.Reset(s.ctx), model.ErrInvalidPhase)

	close(s.provider.Block)
	s.Require().NoError(<-done)
	s.Equal(model.PhaseReveal, s.phase())
	s.Len(s.provider.Requested, 1)
}

// Reveal tests

func (s *ControllerSuite) TestRevealFlow() {
	players := s.addPlayers("A", "B", "C")
	s.provider.QueueData(testRound)
	_, err := s.controller.StartRound(s.ctx)
	s.Require().NoError(err)

	view, err := s.controller.Reveal(s.ctx)
	s.Require().NoError(err)
	s.Nil(view)

	s.Require().NoError(s.controller.SelectForReveal(s.ctx, players[1].ID))
	view, err = s.controller.Reveal(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(view)
	s.False(view.PanelOpen)
	s.Empty(view.SecretWord)

	s.Require().NoError(s.controller.OpenPanel(s.ctx))
	view, err = s.controller.Reveal(s.ctx)
	s.Require().NoError(err)
	s.Equal("Giraffe", view.SecretWord)

	advanced, err := s.controller.Acknowledge(s.ctx)
	s.Require().NoError(err)
	s.False(advanced)

	for _, p := range []model.Player{players[0], players[2]} {
		s.Require().NoError(s.controller.SelectForReveal(s.ctx, p.ID))
		advanced, err = s.controller.Acknowledge(s.ctx)
		s.Require().NoError(err)
	}
	s.True(advanced)
	s.Equal(model.PhasePlaying, s.phase())

	_, err = s.controller.Reveal(s.ctx)
	s.ErrorIs(err, model.ErrInvalidPhase)
}

func (s *ControllerSuite) TestCloseReveal() {
	players := s.addPlayers("A", "B", "C")
	_, err := s.controller.StartRound(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.controller.SelectForReveal(s.ctx, players[0].ID))
	s.Require().NoError(s.controller.CloseReveal(s.ctx))

	state, err := s.controller.State(s.ctx)
	s.Require().NoError(err)
	s.Nil(state.RevealCursor)
	s.Equal(0, state.SeenCount())
}

func (s *ControllerSuite) TestSelectSeenPlayerPublishesNothing() {
	players := s.addPlayers("A", "B", "C")
	_, err := s.controller.StartRound(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.controller.SelectForReveal(s.ctx, players[0].ID))
	_, err = s.controller.Acknowledge(s.ctx)
	s.Require().NoError(err)
	s.publisher.Reset()

	s.Require().NoError(s.controller.SelectForReveal(s.ctx, players[0].ID))
	s.Empty(s.publisher.Events())
}

// Full game through Dispatch

func (s *ControllerSuite) TestDispatchFullGame() {
	var ids []model.PlayerID
	for _, name := range []string{"A", "B", "C", "D"} {
		outcome, err := s.controller.Dispatch(s.ctx, AddPlayer{Name: name})
		s.Require().NoError(err)
		s.Require().NotNil(outcome.Player)
		ids = append(ids, outcome.Player.ID)
	}
	_, err := s.controller.Dispatch(s.ctx, SelectNoCategories{})
	s.Require().NoError(err)
	_, err = s.controller.Dispatch(s.ctx, ToggleCategory{Category: "Animals"})
	s.Require().NoError(err)
	s.provider.QueueData(testRound)

	outcome, err := s.controller.Dispatch(s.ctx, StartRound{})
	s.Require().NoError(err)
	s.Equal(model.PhaseReveal, outcome.Session.Phase)
	s.Equal([]string{"Animals"}, s.provider.Requested)
	s.Len(outcome.Session.Impostors(), 1)

	for i, id := range ids {
		_, err := s.controller.Dispatch(s.ctx, SelectForReveal{PlayerID: id})
		s.Require().NoError(err)
		_, err = s.controller.Dispatch(s.ctx, OpenPanel{})
		s.Require().NoError(err)
		outcome, err = s.controller.Dispatch(s.ctx, Acknowledge{})
		s.Require().NoError(err)
		s.Equal(i == len(ids)-1, outcome.Advanced)
	}
	s.Equal(model.PhasePlaying, outcome.Session.Phase)

	outcome, err = s.controller.Dispatch(s.ctx, EndDebate{})
	s.Require().NoError(err)
	s.Equal(model.PhaseResult, outcome.Session.Phase)

	result, err := s.controller.Result(s.ctx)
	s.Require().NoError(err)
	s.Equal("Giraffe", result.SecretWord)
	s.Len(result.Impostors, 1)

	outcome, err = s.controller.Dispatch(s.ctx, Reset{})
	s.Require().NoError(err)
	s.Equal(model.PhaseSetup, outcome.Session.Phase)
	s.Empty(outcome.Session.Players)
	s.Equal(1, outcome.Session.ImpostorCount)
	s.Equal([]string{"Animals"}, outcome.Session.Categories.Selected)
	s.Contains(s.publisher.Types(), model.EventSessionReset)
}

func (s *ControllerSuite) TestEventsNeverCarrySecrets() {
	players := s.addPlayers("A", "B", "C")
	s.provider.QueueData(testRound)
	_, err := s.controller.StartRound(s.ctx)
	s.Require().NoError(err)
	for _, p := range players {
		s.Require().NoError(s.controller.SelectForReveal(s.ctx, p.ID))
		s.Require().NoError(s.controller.OpenPanel(s.ctx))
		_, err := s.controller.Acknowledge(s.ctx)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.controller.EndDebate(s.ctx))

	for _, e := range s.publisher.Events() {
		data, err := json.Marshal(e)
		s.Require().NoError(err)
		s.NotContains(string(data), testRound.SecretWord)
		s.NotContains(string(data), testRound.ImpostorHint)
		s.NotContains(string(data), "is_impostor")
	}
}

func (s *ControllerSuite) TestLogsNeverCarrySecrets() {
	logger, logs := testutil.BufferLogger()
	c := NewController(
		s.storage,
		newTestMachine(s.random),
		content.NewAdapter(s.provider, time.Second, logger),
		s.publisher,
		s.clock,
		logger,
		Config{},
	)
	_, err := c.Open(s.ctx, "session-logs")
	s.Require().NoError(err)

	for _, name := range []string{"A", "B", "C"} {
		_, err := c.AddPlayer(s.ctx, name)
		s.Require().NoError(err)
	}
	s.provider.QueueData(testRound)
	_, err = c.StartRound(s.ctx)
	s.Require().NoError(err)

	state, err := c.State(s.ctx)
	s.Require().NoError(err)
	for _, p := range state.Players {
		s.Require().NoError(c.SelectForReveal(s.ctx, p.ID))
		s.Require().NoError(c.OpenPanel(s.ctx))
		_, err := c.Acknowledge(s.ctx)
		s.Require().NoError(err)
	}
	s.Require().NoError(c.EndDebate(s.ctx))

	s.NotEmpty(logs.String())
	s.NotContains(logs.String(), testRound.SecretWord)
	s.NotContains(logs.String(), testRound.ImpostorHint)
}

func (s *ControllerSuite) TestStatePersistedToStorage() {
	s.addPlayers("A", "B", "C")
	_, err := s.controller.StartRound(s.ctx)
	s.Require().NoError(err)

	stored, err := s.storage.GetSession(s.ctx, "session-1")
	s.Require().NoError(err)
	state, err := s.controller.State(s.ctx)
	s.Require().NoError(err)
	s.Equal(stored, state)
}
