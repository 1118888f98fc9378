package mqtt

import (
	"errors"
	"strings"
	"testing"

	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
)

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("school/")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Event", topics.Event("news", "created"), "school/events/news/created"},
		{"AllEvents", topics.AllEvents(), "school/events/+/+"},
		{"SystemStatus", topics.SystemStatus(), "school/system/status"},
		{"Prefix", topics.Prefix(), "school"},
		{"DefaultPrefix", NewTopics("").Event("club", "deleted"), "schoolsite/events/club/deleted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestTopics_ParseEvent(t *testing.T) {
	topics := NewTopics("schoolsite")

	tests := []struct {
		topic            string
		resource, action string
		ok               bool
	}{
		{"schoolsite/events/news/created", "news", "created", true},
		{"schoolsite/events/gallery/deleted", "gallery", "deleted", true},
		{"schoolsite/events/news", "", "", false},
		{"schoolsite/events/news/created/extra", "", "", false},
		{"other/events/news/created", "", "", false},
		{"schoolsite/system/status", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			resource, action, ok := topics.ParseEvent(tt.topic)
			if ok != tt.ok || resource != tt.resource || action != tt.action {
				t.Errorf("ParseEvent(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.topic, resource, action, ok, tt.resource, tt.action, tt.ok)
			}
		})
	}
}

func TestValidatePublish(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{"valid", "a/b", []byte("{}"), 1, nil},
		{"empty topic", "", nil, 0, ErrInvalidTopic},
		{"invalid qos", "a/b", nil, 3, ErrInvalidQoS},
		{"too large", "a/b", make([]byte, maxPayloadSize+1), 0, ErrPublishFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePublish(tt.topic, tt.payload, tt.qos)
			if !errors.Is(err, tt.want) {
				t.Errorf("validatePublish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBrokerURL(t *testing.T) {
	if got := brokerURL(config.MQTTBrokerConfig{Host: "localhost", Port: 1883}); got != "tcp://localhost:1883" {
		t.Errorf("brokerURL() = %q", got)
	}
	if got := brokerURL(config.MQTTBrokerConfig{Host: "mq.example", Port: 8883, TLS: true}); got != "ssl://mq.example:8883" {
		t.Errorf("brokerURL(TLS) = %q", got)
	}
}

func TestPayloads(t *testing.T) {
	p := string(presencePayload("api-1", "online", ""))
	if !strings.Contains(p, `"status":"online"`) || !strings.Contains(p, `"client_id":"api-1"`) {
		t.Errorf("online payload = %s", p)
	}
	if strings.Contains(p, "reason") {
		t.Errorf("online payload carries a reason: %s", p)
	}
	if p := string(presencePayload("api-1", "offline", "graceful_shutdown")); !strings.Contains(p, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload = %s", p)
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	if c.IsConnected() {
		t.Error("nil client should not report connected")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client = %v", err)
	}
}
