package realtime

import (
	"encoding/json"
	"time"
)

// Action is what happened to a record.
type Action string

// Change actions.
const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// RoomAll is the room that receives every event.
const RoomAll = "all"

// Event is one change notification. Its wire name is "{Resource}:{Action}",
// e.g. "news:created".
type Event struct {
	Resource string
	Action   Action
	Payload  any
}

// Name returns the event name clients listen for.
func (e Event) Name() string {
	return e.Resource + ":" + string(e.Action)
}

// Emitter delivers events. Emit must not block on slow consumers.
type Emitter interface {
	Emit(e Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

// Emit calls f(e).
func (f EmitterFunc) Emit(e Event) { f(e) }

// Fanout delivers every event to each of its emitters in order.
type Fanout []Emitter

// Emit forwards e to every non-nil emitter.
func (f Fanout) Emit(e Event) {
	for _, em := range f {
		if em != nil {
			em.Emit(e)
		}
	}
}

// Discard drops every event.
var Discard Emitter = EmitterFunc(func(Event) {})

// Message types exchanged over the WebSocket.
const (
	TypeEvent  = "event"
	TypeJoin   = "join"
	TypeLeave  = "leave"
	TypeJoined = "joined"
	TypeLeft   = "left"
	TypePing   = "ping"
	TypePong   = "pong"
	TypeError  = "error"
)

// Message is the WebSocket frame format in both directions.
type Message struct {
	Type      string `json:"type"`
	Event     string `json:"event,omitempty"`
	Room      string `json:"room,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

func encodeEvent(e Event, now time.Time) ([]byte, error) {
	return json.Marshal(Message{
		Type:      TypeEvent,
		Event:     e.Name(),
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Payload:   e.Payload,
	})
}
