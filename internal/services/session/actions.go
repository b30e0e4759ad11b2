package session

import (
	"context"
	"fmt"

	"github.com/mcoot/impostor/internal/model"
)

// Action is a user-triggered request to change the session
type Action interface {
	action() string
}

type (
	AddPlayer           struct{ Name string }
	RemovePlayer        struct{ PlayerID model.PlayerID }
	ToggleCategory      struct{ Category string }
	SelectAllCategories struct{}
	SelectNoCategories  struct{}
	UpdateSettings      struct{ Settings Settings }
	StartRound          struct{}
	SelectForReveal     struct{ PlayerID model.PlayerID }
	OpenPanel           struct{}
	CloseReveal         struct{}
	Acknowledge         struct{}
	EndDebate           struct{}
	Reset               struct{}
)

func (AddPlayer) action() string           { return "add player" }
func (RemovePlayer) action() string        { return "remove player" }
func (ToggleCategory) action() string      { return "toggle category" }
func (SelectAllCategories) action() string { return "select all categories" }
func (SelectNoCategories) action() string  { return "select no categories" }
func (UpdateSettings) action() string      { return "update settings" }
func (StartRound) action() string          { return "start round" }
func (SelectForReveal) action() string     { return "select for reveal" }
func (OpenPanel) action() string           { return "open role panel" }
func (CloseReveal) action() string         { return "close reveal" }
func (Acknowledge) action() string         { return "acknowledge role" }
func (EndDebate) action() string           { return "end debate" }
func (Reset) action() string               { return "reset" }

// Dispatch applies a single action and returns the resulting state
func (c *Controller) Dispatch(ctx context.Context, a Action) (*Outcome, error) {
	var (
		outcome Outcome
		err     error
	)

	switch a := a.(type) {
	case AddPlayer:
		var p model.Player
		p, err = c.AddPlayer(ctx, a.Name)
		if err == nil {
			outcome.Player = &p
		}
	case RemovePlayer:
		err = c.RemovePlayer(ctx, a.PlayerID)
	case ToggleCategory:
		err = c.ToggleCategory(ctx, a.Category)
	case SelectAllCategories:
		err = c.SelectAllCategories(ctx)
	case SelectNoCategories:
		err = c.SelectNoCategories(ctx)
	case UpdateSettings:
		_, err = c.UpdateSettings(ctx, a.Settings)
	case StartRound:
		return c.StartRound(ctx)
	case SelectForReveal:
		err = c.SelectForReveal(ctx, a.PlayerID)
	case OpenPanel:
		err = c.OpenPanel(ctx)
	case CloseReveal:
		err = c.CloseReveal(ctx)
	case Acknowledge:
		outcome.Advanced, err = c.Acknowledge(ctx)
	case EndDebate:
		err = c.EndDebate(ctx)
	case Reset:
		err = c.Reset(ctx)
	default:
		return nil, fmt.Errorf("unsupported action %T", a)
	}
	if err != nil {
		return nil, err
	}

	outcome.Session, err = c.State(ctx)
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}
