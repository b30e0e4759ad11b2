package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/impostor/internal/dependencies/clock"
	"github.com/mcoot/impostor/internal/events"
	"github.com/mcoot/impostor/internal/model"
	"github.com/mcoot/impostor/internal/services/content"
	"github.com/mcoot/impostor/internal/storage"
)

// Config controls how the controller reacts to content failures
type Config struct {
	// StrictContent returns to SETUP on a provider failure instead of using fallback content
	StrictContent bool
}

// Settings is a partial update of the setup options. Nil fields are left unchanged.
type Settings struct {
	ImpostorCount *int
	HideCategory  *bool
	HideHint      *bool
}

// Outcome describes the result of an accepted action
type Outcome struct {
	Session *model.Session

	// Player is set when a player was added
	Player *model.Player

	// UsedFallback is true when the round started with canned content
	UsedFallback bool

	// Advanced is true when an acknowledgment moved the session to PLAYING
	Advanced bool
}

// Controller owns the single session of the process. It serializes every
// mutation, persists each accepted one and publishes events for it.
type Controller struct {
	mu sync.Mutex

	sessionID model.SessionID
	storage   storage.Storage
	machine   *Machine
	content   *content.Adapter
	publisher events.Publisher
	clock     clock.Clock
	logger    *slog.Logger
	cfg       Config
}

// NewController creates a new session Controller
func NewController(
	storage storage.Storage,
	machine *Machine,
	content *content.Adapter,
	publisher events.Publisher,
	clock clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	return &Controller{
		storage:   storage,
		machine:   machine,
		content:   content,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		cfg:       cfg,
	}
}

// Open creates the fresh session this controller drives, replacing any previous one
func (c *Controller) Open(ctx context.Context, id model.SessionID) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID != "" && c.sessionID != id {
		if err := c.storage.DeleteSession(ctx, c.sessionID); err != nil {
			return nil, err
		}
	}

	s := c.machine.NewSession(id, c.clock.Now())
	if err := c.storage.SaveSession(ctx, s); err != nil {
		c.logger.Error("failed to save session",
			slog.String("session_id", string(id)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	c.sessionID = id

	c.logger.Info("session opened",
		slog.String("session_id", string(id)),
		slog.Int("category_count", len(s.Categories.Available)),
	)
	return s.Clone(), nil
}

// SessionID returns the ID of the current session
func (c *Controller) SessionID() model.SessionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Categories returns the full category catalogue
func (c *Controller) Categories() []string {
	return c.machine.Categories()
}

// State returns a snapshot of the full session, secrets included
func (c *Controller) State(ctx context.Context) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Reveal returns what the player under the reveal cursor may currently see
func (c *Controller) Reveal(ctx context.Context) (*model.RoleView, error) {
	s, err := c.State(ctx)
	if err != nil {
		return nil, err
	}
	if s.Phase != model.PhaseReveal {
		return nil, &model.PhaseError{Action: "view reveal", Phase: s.Phase}
	}
	return RevealView(s), nil
}

// Result returns the disclosed round outcome
func (c *Controller) Result(ctx context.Context) (*model.ResultView, error) {
	s, err := c.State(ctx)
	if err != nil {
		return nil, err
	}
	return ResultView(s)
}

func (c *Controller) load(ctx context.Context) (*model.Session, error) {
	if c.sessionID == "" {
		return nil, model.ErrSessionNotFound
	}
	return c.storage.GetSession(ctx, c.sessionID)
}

// apply runs fn against the stored session and persists the result if fn succeeds.
// The caller must hold c.mu.
func (c *Controller) apply(ctx context.Context, fn func(s *model.Session) ([]model.Event, error)) (*model.Session, error) {
	s, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	from := s.Phase
	evts, err := fn(s)
	if err != nil {
		return nil, err
	}

	s.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveSession(ctx, s); err != nil {
		c.logger.Error("failed to save session",
			slog.String("session_id", string(s.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	for _, e := range evts {
		c.publisher.Publish(e)
	}
	if s.Phase != from {
		c.logger.Info("phase changed",
			slog.String("session_id", string(s.ID)),
			slog.String("from", from.String()),
			slog.String("to", s.Phase.String()),
			slog.Int("round", s.RoundNumber),
		)
		c.publisher.Publish(c.event(s, model.EventPhaseChanged, "", model.PhaseChangedPayload{From: from, To: s.Phase}))
	}

	return s, nil
}

func (c *Controller) mutate(ctx context.Context, fn func(s *model.Session) ([]model.Event, error)) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(ctx, fn)
}

func (c *Controller) event(s *model.Session, t model.EventType, playerID model.PlayerID, payload any) model.Event {
	return model.Event{
		Type:      t,
		Timestamp: c.clock.Now(),
		SessionID: s.ID,
		Phase:     s.Phase,
		PlayerID:  playerID,
		Payload:   payload,
	}
}

func (c *Controller) settingsEvent(s *model.Session) model.Event {
	return c.event(s, model.EventSettingsChanged, "", model.SettingsPayload{
		ImpostorCount: s.ImpostorCount,
		Modifiers:     s.Modifiers,
		Selected:      slices.Clone(s.Categories.Selected),
	})
}

// Setup operations

// AddPlayer adds a player to the roster
func (c *Controller) AddPlayer(ctx context.Context, name string) (model.Player, error) {
	var player model.Player
	_, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		p, err := c.machine.AddPlayer(s, name)
		if err != nil {
			return nil, err
		}
		player = p
		return []model.Event{
			c.event(s, model.EventPlayerAdded, p.ID, model.PlayerPayload{PlayerID: p.ID, Name: p.Name}),
		}, nil
	})
	if err != nil {
		return model.Player{}, err
	}

	c.logger.Info("player added",
		slog.String("player_id", string(player.ID)),
		slog.String("name", player.Name),
	)
	return player, nil
}

// RemovePlayer removes a player from the roster. Unknown IDs are ignored.
func (c *Controller) RemovePlayer(ctx context.Context, id model.PlayerID) error {
	_, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		player := s.GetPlayer(id)
		var name string
		if player != nil {
			name = player.Name
		}
		removed, err := c.machine.RemovePlayer(s, id)
		if err != nil || !removed {
			return nil, err
		}
		return []model.Event{
			c.event(s, model.EventPlayerRemoved, id, model.PlayerPayload{PlayerID: id, Name: name}),
		}, nil
	})
	return err
}

// ToggleCategory flips a category in the selection
func (c *Controller) ToggleCategory(ctx context.Context, name string) error {
	_, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		if err := c.machine.ToggleCategory(s, name); err != nil {
			return nil, err
		}
		return []model.Event{c.settingsEvent(s)}, nil
	})
	return err
}

// SelectAllCategories selects every category
func (c *Controller) SelectAllCategories(ctx context.Context) error {
	_, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		if err := c.machine.SelectAllCategories(s); err != nil {
			return nil, err
		}
		return []model.Event{c.settingsEvent(s)}, nil
	})
	return err
}

// SelectNoCategories clears the selection
func (c *Controller) SelectNoCategories(ctx context.Context) error {
	_, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		if err := c.machine.SelectNoCategories(s); err != nil {
			return nil, err
		}
		return []model.Event{c.settingsEvent(s)}, nil
	})
	return err
}

// UpdateSettings applies a partial settings update atomically
func (c *Controller) UpdateSettings(ctx context.Context, settings Settings) (*model.Session, error) {
	s, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		if settings.ImpostorCount != nil {
			if err := c.machine.SetImpostorCount(s, *settings.ImpostorCount); err != nil {
				return nil, err
			}
		}
		mods := s.Modifiers
		if settings.HideCategory != nil {
			mods.HideCategory = *settings.HideCategory
		}
		if settings.HideHint != nil {
			mods.HideHint = *settings.HideHint
		}
		if err := c.machine.SetModifiers(s, mods); err != nil {
			return nil, err
		}
		return []model.Event{c.settingsEvent(s)}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// SetImpostorCount sets how many impostors the next round has
func (c *Controller) SetImpostorCount(ctx context.Context, count int) error {
	_, err := c.UpdateSettings(ctx, Settings{ImpostorCount: &count})
	return err
}

// SetModifiers replaces both round modifiers
func (c *Controller) SetModifiers(ctx context.Context, mods model.Modifiers) error {
	_, err := c.UpdateSettings(ctx, Settings{HideCategory: &mods.HideCategory, HideHint: &mods.HideHint})
	return err
}

// Round operations

// StartRound validates the setup, assigns roles and fetches content for a random
// selected category. The lock is released while content is requested, during
// which the session stays in LOADING and rejects every other action.
func (c *Controller) StartRound(ctx context.Context) (*Outcome, error) {
	var category string
	s, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		cat, err := c.machine.BeginRound(s)
		category = cat
		return nil, err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("round started",
		slog.String("session_id", string(s.ID)),
		slog.Int("round", s.RoundNumber),
		slog.Int("player_count", len(s.Players)),
		slog.Int("impostor_count", s.ImpostorCount),
		slog.String("category", category),
	)

	// The request runs to completion even if the caller goes away
	detached := context.WithoutCancel(ctx)
	data, fetchErr := c.content.Request(detached, category)

	c.mu.Lock()
	defer c.mu.Unlock()

	loading := s.Clone()
	var outcome Outcome
	s, err = c.apply(detached, func(s *model.Session) ([]model.Event, error) {
		if fetchErr == nil {
			return nil, c.machine.CompleteRound(s, data, false)
		}

		if c.cfg.StrictContent {
			return nil, c.machine.AbortRound(s)
		}

		if err := c.machine.CompleteRound(s, content.Fallback(), true); err != nil {
			return nil, err
		}
		outcome.UsedFallback = true
		return []model.Event{
			c.event(s, model.EventContentFallback, "", model.ContentFallbackPayload{
				RequestedCategory: category,
				Reason:            fetchErr.Error(),
			}),
		}, nil
	})
	if err != nil {
		c.recoverLoading(detached, loading, err)
		return nil, fmt.Errorf("completing round: %w", err)
	}

	if fetchErr != nil && c.cfg.StrictContent {
		return nil, fetchErr
	}
	if outcome.UsedFallback {
		c.logger.Warn("round using fallback content",
			slog.String("session_id", string(s.ID)),
			slog.String("requested_category", category),
		)
	}

	outcome.Session = s.Clone()
	return &outcome, nil
}

// recoverLoading returns a session left in LOADING to SETUP after the round
// could not be completed. The stored copy is preferred; the snapshot taken when
// the round began is used when the stored session can no longer be read.
// The caller must hold c.mu.
func (c *Controller) recoverLoading(ctx context.Context, snapshot *model.Session, cause error) {
	c.logger.Error("failed to complete round, returning to setup",
		slog.String("session_id", string(snapshot.ID)),
		slog.String("error", cause.Error()),
	)

	s := snapshot
	if stored, err := c.load(ctx); err == nil {
		if stored.Phase != model.PhaseLoading {
			return
		}
		s = stored
	}

	if err := c.machine.AbortRound(s); err != nil {
		c.logger.Error("failed to abort round",
			slog.String("session_id", string(s.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	s.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveSession(ctx, s); err != nil {
		c.logger.Error("failed to save aborted round",
			slog.String("session_id", string(s.ID)),
			slog.String("error", err.Error()),
		)
		return
	}

	c.logger.Info("phase changed",
		slog.String("session_id", string(s.ID)),
		slog.String("from", model.PhaseLoading.String()),
		slog.String("to", s.Phase.String()),
		slog.Int("round", s.RoundNumber),
	)
	c.publisher.Publish(c.event(s, model.EventPhaseChanged, "", model.PhaseChangedPayload{From: model.PhaseLoading, To: s.Phase}))
}

// SelectForReveal puts a player under the reveal cursor
func (c *Controller) SelectForReveal(ctx context.Context, id model.PlayerID) error {
	_, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		if err := c.machine.SelectForReveal(s, id); err != nil {
			return nil, err
		}
		if s.RevealCursor == nil || *s.RevealCursor != id {
			return nil, nil
		}
		return []model.Event{c.event(s, model.EventRevealSelected, id, nil)}, nil
	})
	return err
}

// OpenPanel shows the role of the player under the cursor
func (c *Controller) OpenPanel(ctx context.Context) error {
	_, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		if err := c.machine.OpenPanel(s); err != nil {
			return nil, err
		}
		return []model.Event{c.event(s, model.EventRevealOpened, *s.RevealCursor, nil)}, nil
	})
	return err
}

// CloseReveal backs out of the current reveal without acknowledging it
func (c *Controller) CloseReveal(ctx context.Context) error {
	_, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		return nil, c.machine.CloseReveal(s)
	})
	return err
}

// Acknowledge confirms the current player has seen their role. It reports
// whether this was the last player and the debate has begun.
func (c *Controller) Acknowledge(ctx context.Context) (bool, error) {
	var advanced bool
	_, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		adv, id, err := c.machine.Acknowledge(s)
		if err != nil {
			return nil, err
		}
		advanced = adv
		return []model.Event{
			c.event(s, model.EventRoleAcknowledged, id, model.AcknowledgedPayload{
				Seen:  s.SeenCount(),
				Total: len(s.Players),
			}),
		}, nil
	})
	return advanced, err
}

// EndDebate ends the discussion and discloses the result
func (c *Controller) EndDebate(ctx context.Context) error {
	_, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		return nil, c.machine.EndDebate(s)
	})
	return err
}

// Reset returns to SETUP with an empty roster for a new game
func (c *Controller) Reset(ctx context.Context) error {
	_, err := c.mutate(ctx, func(s *model.Session) ([]model.Event, error) {
		if err := c.machine.Reset(s); err != nil {
			return nil, err
		}
		return []model.Event{c.event(s, model.EventSessionReset, "", nil)}, nil
	})
	if err == nil {
		c.logger.Info("session reset")
	}
	return err
}
