package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "schoolsite"

// Topics builds topic names under one prefix.
//
//	topics := mqtt.NewTopics("schoolsite")
//	topics.Event("news", "created")
//	// Returns: "schoolsite/events/news/created"
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix, trimming surrounding slashes.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic prefix.
func (t Topics) Prefix() string {
	return t.prefix
}

// Event returns the topic for one content change.
//
// Example: schoolsite/events/club/deleted
func (t Topics) Event(resource, action string) string {
	return fmt.Sprintf("%s/events/%s/%s", t.prefix, resource, action)
}

// AllEvents returns a pattern matching every content change.
//
// Pattern: schoolsite/events/+/+
func (t Topics) AllEvents() string {
	return t.prefix + "/events/+/+"
}

// ParseEvent splits an event topic into resource and action.
func (t Topics) ParseEvent(topic string) (resource, action string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.prefix+"/events/")
	if !found {
		return "", "", false
	}
	resource, action, found = strings.Cut(rest, "/")
	if !found || resource == "" || action == "" || strings.Contains(action, "/") {
		return "", "", false
	}
	return resource, action, true
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: schoolsite/system/status
func (t Topics) SystemStatus() string {
	return t.prefix + "/system/status"
}
