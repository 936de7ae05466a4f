package mqtt

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
)

func logger() *zerolog.Logger {
	l := logging.Component("mqtt")
	return &l
}

// Client owns the broker connection shared by Subscriber and Publisher.
// Hooks registered with OnConnect run after every (re)connect, so
// subscriptions survive a broker restart.
type Client struct {
	client mqtt.Client

	mu    sync.Mutex
	hooks []func()
}

// ClientConfig holds MQTT client configuration
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// NewClient connects to the broker.
func NewClient(config ClientConfig) (*Client, error) {
	c := &Client{}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetCleanSession(true)
	opts.SetDefaultPublishHandler(unhandledMessage)
	opts.SetOnConnectHandler(c.handleConnect)
	opts.SetConnectionLostHandler(connectionLost)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	logger().Info().Str("broker", config.Broker).Str("client_id", config.ClientID).Msg("connected to broker")
	return c, nil
}

// GetNativeClient returns the underlying paho MQTT client
// This is used by Subscriber and Publisher
func (c *Client) GetNativeClient() mqtt.Client {
	return c.client
}

// OnConnect registers fn to run on every connect established after the
// call. NewClient has already connected, so callers do their first setup
// themselves.
func (c *Client) OnConnect(fn func()) {
	c.mu.Lock()
	c.hooks = append(c.hooks, fn)
	c.mu.Unlock()
}

func (c *Client) handleConnect(mqtt.Client) {
	logger().Info().Msg("connection established")

	c.mu.Lock()
	hooks := append([]func(){}, c.hooks...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// IsConnected reports whether the broker connection is up. Used as a
// readiness check.
func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Close closes the MQTT client connection
func (c *Client) Close() {
	c.client.Disconnect(250)
	logger().Info().Msg("disconnected")
}

func unhandledMessage(_ mqtt.Client, msg mqtt.Message) {
	logger().Debug().Str("topic", msg.Topic()).Msg("unhandled message")
}

func connectionLost(_ mqtt.Client, err error) {
	logger().Warn().Err(err).Msg("connection lost")
}
