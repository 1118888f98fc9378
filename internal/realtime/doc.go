// Package realtime pushes content change notifications to connected
// WebSocket clients.
//
// A Hub holds the connected clients. Every successful create, update or
// delete emits an Event named "{resource}:{action}" which the Hub writes to
// each client's buffered queue; a client that cannot keep up misses
// events rather than slowing the request that caused them.
//
// Clients may narrow delivery by joining rooms named after the resource
// prefix ("news", "teacher", "club", "event", "gallery") or "all". A client
// that joined no rooms receives every event.
//
// When MQTT is enabled a Relay publishes local events to the broker and
// re-broadcasts events from other instances, so a Fanout of Hub and Relay
// is the emitter handed to the HTTP layer.
package realtime
