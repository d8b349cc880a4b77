// Package realtime relays server and client events to websocket subscribers
// grouped in rooms.
package realtime

import "context"

// Event names published by the server.
const (
	EventAssetChanged   = "asset_changed"
	EventReceiveMessage = "receive_message"
	EventApplicantData  = "new-applicant-data"
)

// Event is the wire envelope shared by the websocket protocol and the Redis
// channel. An empty Room broadcasts to every connected socket.
type Event struct {
	Name    string `json:"event"`
	Room    string `json:"room,omitempty"`
	Payload any    `json:"data"`
}

// Notifier publishes events fire-and-forget. Callers ignore the error beyond
// logging it.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
