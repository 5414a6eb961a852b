package relay

import (
	"context"
	"encoding/json"
)

// EventNewMessage is the single event name the admin UI listens for.
const EventNewMessage = "new_message"

// Envelope is the frame format on the wire: an event name plus its payload,
// the same shape whether the frame is broadcast locally or forwarded.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Publisher pushes a payload to every currently subscribed UI client.
// Exactly two implementations exist, selected once at startup: LocalPublisher
// (this process hosts the push server) and ForwardingPublisher (a separately
// hosted push server does). No acks, no replay.
type Publisher interface {
	Publish(ctx context.Context, event string, data any) error
}

// LocalPublisher broadcasts through the in-process hub.
type LocalPublisher struct {
	hub *Hub
}

func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (p *LocalPublisher) Publish(_ context.Context, event string, data any) error {
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return err
	}
	p.hub.Broadcast(frame)
	return nil
}
