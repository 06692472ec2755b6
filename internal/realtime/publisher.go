package realtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

// Publisher routes a profile's events to its streams. With a bus the event
// takes a round trip through Redis, which delivers it to this instance's
// hub as well; without one it goes straight to the local hub.
type Publisher struct {
	log *logger.Logger
	hub *Hub
	bus Bus
}

func NewPublisher(log *logger.Logger, hub *Hub, bus Bus) *Publisher {
	return &Publisher{log: log.With("component", "RealtimePublisher"), hub: hub, bus: bus}
}

func (p *Publisher) Hub() *Hub {
	if p == nil {
		return nil
	}
	return p.hub
}

// Start forwards bus traffic into the local hub until ctx ends.
func (p *Publisher) Start(ctx context.Context) error {
	if p == nil || p.bus == nil {
		return nil
	}
	return p.bus.StartForwarder(ctx, p.hub.Broadcast)
}

// Push is best effort. Delivery failures are logged, never returned.
func (p *Publisher) Push(ctx context.Context, userID uuid.UUID, event Event, data any) {
	if p == nil || userID == uuid.Nil {
		return
	}
	msg := Message{Channel: UserChannel(userID), Event: event, Data: data}
	if p.bus != nil {
		err := p.bus.Publish(ctx, msg)
		if err == nil {
			return
		}
		p.log.Warn("event bus publish failed, delivering locally", "user_id", userID, "event", event, "error", err)
	}
	p.hub.Broadcast(msg)
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.hub.Shutdown()
	if p.bus != nil {
		return p.bus.Close()
	}
	return nil
}
