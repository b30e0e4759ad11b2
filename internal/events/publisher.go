package events

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/impostor/internal/model"
)

// Publisher receives session events as they happen
type Publisher interface {
	Publish(event model.Event)
}

// HubPublisher encodes events as JSON and broadcasts them on a Hub
type HubPublisher struct {
	hub    *Hub
	logger *slog.Logger
}

var _ Publisher = (*HubPublisher)(nil)

// NewHubPublisher creates a new HubPublisher
func NewHubPublisher(hub *Hub, logger *slog.Logger) *HubPublisher {
	return &HubPublisher{hub: hub, logger: logger}
}

// Publish broadcasts the event under its type name
func (p *HubPublisher) Publish(event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()),
		)
		return
	}
	p.hub.BroadcastEvent(string(event.Type), string(data))
}

// NopPublisher discards every event
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

// Publish does nothing
func (NopPublisher) Publish(model.Event) {}
