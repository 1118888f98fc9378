package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/huongkhe/schoolsite/internal/infrastructure/logging"
	"github.com/huongkhe/schoolsite/internal/infrastructure/mqtt"
)

// Broker is the subset of *mqtt.Client the relay uses.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// relayMessage is the MQTT payload for a relayed event.
type relayMessage struct {
	Origin  string          `json:"origin"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Relay shares events between API instances over MQTT. Emit publishes a
// local event; events published by other instances are delivered to local.
//
// Thread Safety:
//   - Safe for concurrent use. Publishes run on their own goroutines.
type Relay struct {
	broker Broker
	topics mqtt.Topics
	qos    byte
	origin string
	local  Emitter
	logger *logging.Logger
	wg     sync.WaitGroup
}

// NewRelay creates a relay delivering remote events to local.
func NewRelay(broker Broker, topics mqtt.Topics, qos byte, local Emitter, logger *logging.Logger) *Relay {
	return &Relay{
		broker: broker,
		topics: topics,
		qos:    qos,
		origin: uuid.NewString(),
		local:  local,
		logger: logger,
	}
}

// Origin returns the id this instance tags its messages with.
func (r *Relay) Origin() string {
	return r.origin
}

// Start subscribes to every event topic.
func (r *Relay) Start() error {
	if err := r.broker.Subscribe(r.topics.AllEvents(), r.qos, r.handle); err != nil {
		return fmt.Errorf("subscribing to relay events: %w", err)
	}
	r.logger.Info("event relay started", "topic", r.topics.AllEvents(), "origin", r.origin)
	return nil
}

// Emit publishes e in the background. Failures are logged and dropped.
func (r *Relay) Emit(e Event) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		r.logger.Error("failed to marshal relay payload", "event", e.Name(), "error", err)
		return
	}
	data, err := json.Marshal(relayMessage{Origin: r.origin, Event: e.Name(), Payload: payload})
	if err != nil {
		r.logger.Error("failed to marshal relay message", "event", e.Name(), "error", err)
		return
	}

	topic := r.topics.Event(e.Resource, string(e.Action))
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.broker.Publish(topic, data, r.qos, false); err != nil {
			r.logger.Warn("relay publish failed", "topic", topic, "error", err)
		}
	}()
}

// Wait blocks until in-flight publishes finish.
func (r *Relay) Wait() {
	r.wg.Wait()
}

func (r *Relay) handle(topic string, payload []byte) error {
	resource, action, ok := r.topics.ParseEvent(topic)
	if !ok {
		return fmt.Errorf("unexpected relay topic %q", topic)
	}

	var msg relayMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding relay message: %w", err)
	}
	if msg.Origin == r.origin {
		return nil
	}

	r.local.Emit(Event{Resource: resource, Action: Action(action), Payload: msg.Payload})
	return nil
}
