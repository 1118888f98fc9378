package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
)

var (
	ErrNotConnected     = errors.New("mqtt: client not connected")
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
	ErrSubscribeFailed  = errors.New("mqtt: subscribe failed")
	ErrInvalidQoS       = errors.New("mqtt: QoS must be 0, 1 or 2")
	ErrInvalidTopic     = errors.New("mqtt: empty topic")
)

const (
	connectTimeout = 10 * time.Second
	ackTimeout     = 5 * time.Second
	// quiesceMillis lets in-flight work drain on Disconnect.
	quiesceMillis = 500
)

// Logger receives handler failures and connection loss.
// *slog.Logger and *logging.Logger both satisfy it.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Client is a broker connection scoped to one topic prefix. Subscriptions
// made through it are replayed after every reconnect.
type Client struct {
	paho     pahomqtt.Client
	topics   Topics
	qos      byte
	clientID string

	online atomic.Bool
	logger atomic.Pointer[Logger]

	mu     sync.Mutex
	routes map[string]route
}

type route struct {
	qos     byte
	handler MessageHandler
}

// Connect dials the configured broker and blocks until the first
// session is up or connectTimeout passes.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{
		topics:   NewTopics(cfg.TopicPrefix),
		qos:      byte(cfg.QoS),
		clientID: cfg.Broker.ClientID,
		routes:   make(map[string]route),
	}

	opts := dialOptions(cfg, c.topics)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.onSession() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.online.Store(false)
		c.logWarn("MQTT connection lost", "error", err)
	})

	c.paho = pahomqtt.NewClient(opts)
	tok := c.paho.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: no answer from %s within %v", ErrConnectionFailed, brokerURL(cfg.Broker), connectTimeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	// The on-connect callback may still be pending.
	c.online.Store(true)
	return c, nil
}

// onSession runs for the first connection and every reconnect.
func (c *Client) onSession() {
	c.online.Store(true)

	c.mu.Lock()
	for topic, rt := range c.routes {
		c.paho.Subscribe(topic, rt.qos, c.dispatch(rt.handler))
	}
	c.mu.Unlock()

	c.paho.Publish(c.topics.SystemStatus(), c.qos, true, presencePayload(c.clientID, "online", ""))
}

// Topics returns the topic builder for the configured prefix.
func (c *Client) Topics() Topics { return c.topics }

// QoS returns the configured default QoS level.
func (c *Client) QoS() byte { return c.qos }

// SetLogger installs the logger used for handler errors and connection loss.
func (c *Client) SetLogger(l Logger) {
	c.logger.Store(&l)
}

func (c *Client) logWarn(msg string, args ...any) {
	if l := c.logger.Load(); l != nil && *l != nil {
		(*l).Warn(msg, args...)
	}
}

func (c *Client) logError(msg string, args ...any) {
	if l := c.logger.Load(); l != nil && *l != nil {
		(*l).Error(msg, args...)
	}
}

// IsConnected reports whether the session is currently up.
func (c *Client) IsConnected() bool {
	if c == nil || c.paho == nil {
		return false
	}
	return c.online.Load() && c.paho.IsConnected()
}

// HealthCheck returns ErrNotConnected while the broker is unreachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Close announces a graceful offline status and disconnects. It is safe
// on a nil client and may be called more than once.
func (c *Client) Close() error {
	if c == nil || c.paho == nil {
		return nil
	}
	if c.online.Swap(false) && c.paho.IsConnected() {
		c.paho.Publish(c.topics.SystemStatus(), c.qos, true,
			presencePayload(c.clientID, "offline", "graceful_shutdown")).WaitTimeout(ackTimeout)
	}
	c.paho.Disconnect(quiesceMillis)
	return nil
}
