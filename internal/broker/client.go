// Package broker connects the monitor to the MQTT broker that carries sensor readings and snapshots.
package broker

import (
	"context"
	"errors"
	"fmt"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

// Handler processes a message received on a subscribed topic.
type Handler = func(topic string, payload []byte)

type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Client publishes and subscribes on an MQTT broker. Subscriptions are restored whenever the connection is re-established.
type Client struct {
	client   paho.Client
	qos      byte
	logger   *slog.Logger
	lock     sync.Mutex
	handlers map[string]Handler
}

const (
	connectTimeout = 10 * time.Second
	requestTimeout = 5 * time.Second
)

// Connect creates a Client and connects it to the broker. A random suffix is added to the client ID,
// so several instances can share the same configuration.
func Connect(cfg Config, logger *slog.Logger) (*Client, error) {
	c := Client{
		qos:      cfg.QoS,
		logger:   logger,
		handlers: make(map[string]Handler),
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID + "-" + uuid.NewString()[:8]).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		// handlers are called in arrival order and must not block
		SetOrderMatters(true).
		SetOnConnectHandler(func(paho.Client) { c.resubscribe() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { logger.Warn("connection to broker lost", "err", err) })

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, errors.New("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	logger.Info("connected to broker", "broker", cfg.Broker)
	return &c, nil
}

// New returns a Client for an existing paho client.
func New(client paho.Client, qos byte, logger *slog.Logger) *Client {
	return &Client{
		client:   client,
		qos:      qos,
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

func (c *Client) Subscribe(topic string, handler Handler) error {
	c.lock.Lock()
	c.handlers[topic] = handler
	c.lock.Unlock()
	if !c.client.IsConnectionOpen() {
		// subscribed once connected
		return nil
	}
	return c.subscribe(topic, handler)
}

func (c *Client) subscribe(topic string, handler Handler) error {
	token := c.client.Subscribe(topic, c.qos, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if err := wait(context.Background(), token, requestTimeout); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	c.logger.Debug("subscribed", "topic", topic)
	return nil
}

func (c *Client) resubscribe() {
	c.lock.Lock()
	handlers := maps.Clone(c.handlers)
	c.lock.Unlock()
	for _, topic := range slices.Sorted(maps.Keys(handlers)) {
		if err := c.subscribe(topic, handlers[topic]); err != nil {
			c.logger.Error("failed to restore subscription", "err", err)
		}
	}
}

func (c *Client) Unsubscribe(topics ...string) error {
	if len(topics) == 0 {
		return nil
	}
	c.lock.Lock()
	for _, topic := range topics {
		delete(c.handlers, topic)
	}
	c.lock.Unlock()
	if !c.client.IsConnectionOpen() {
		return nil
	}
	if err := wait(context.Background(), c.client.Unsubscribe(topics...), requestTimeout); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	c.logger.Debug("unsubscribed", "topics", topics)
	return nil
}

// Topics returns the subscribed topics.
func (c *Client) Topics() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return slices.Sorted(maps.Keys(c.handlers))
}

func (c *Client) Publish(ctx context.Context, topic string, retained bool, payload []byte) error {
	if err := wait(ctx, c.client.Publish(topic, c.qos, retained, payload), requestTimeout); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (c *Client) Close() {
	c.client.Disconnect(1000)
}

func wait(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return errors.New("timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}
