package mqtt

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/metrics"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
)

// DefaultEnqueueTimeout bounds how long a handler waits for room in the request channel.
const DefaultEnqueueTimeout = 2 * time.Second

// Subscriber handles MQTT subscriptions and writes messages to channels
type Subscriber struct {
	client mqtt.Client

	// Output channel (written by subscriber, read by the detection service)
	RequestChan chan *models.DetectionRequest

	requestTopic   string
	enqueueTimeout time.Duration
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	RequestTopic   string // e.g., "ids/+/logs"
	EnqueueTimeout time.Duration
}

// NewSubscriber creates a new MQTT subscriber with channels
func NewSubscriber(
	client mqtt.Client,
	config SubscriberConfig,
	requestChan chan *models.DetectionRequest,
) *Subscriber {
	timeout := config.EnqueueTimeout
	if timeout <= 0 {
		timeout = DefaultEnqueueTimeout
	}
	return &Subscriber{
		client:         client,
		RequestChan:    requestChan,
		requestTopic:   config.RequestTopic,
		enqueueTimeout: timeout,
	}
}

// SubscribeAll subscribes to the configured request topic
func (s *Subscriber) SubscribeAll() error {
	if s.requestTopic == "" {
		return nil
	}

	token := s.client.Subscribe(s.requestTopic, 1, s.handleLogs)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to request topic: %w", token.Error())
	}

	logger().Info().Str("topic", s.requestTopic).Msg("subscribed to detection requests")
	return nil
}

// handleLogs turns a CSV batch published on ids/{device}/logs into a detection request
func (s *Subscriber) handleLogs(client mqtt.Client, msg mqtt.Message) {
	slug := extractDeviceSlug(msg.Topic())
	if slug == "" {
		logger().Warn().Str("topic", msg.Topic()).Msg("could not extract device from topic")
		return
	}

	// the request outlives the callback
	payload := append([]byte(nil), msg.Payload()...)

	req := &models.DetectionRequest{
		DeviceSlug: slug,
		Payload:    payload,
		ReceivedAt: time.Now(),
	}
	metrics.MQTTRequestsReceived.Inc()

	logger().Debug().Str("device", slug).Int("bytes", len(payload)).Msg("received log batch")

	select {
	case s.RequestChan <- req:
	case <-time.After(s.enqueueTimeout):
		metrics.MQTTRequestsDropped.Inc()
		logger().Warn().Str("device", slug).Msg("request channel full, dropping batch")
	}
}

// extractDeviceSlug extracts the device slug from an MQTT topic
// Example: "ids/garage_door/logs" -> "garage_door"
func extractDeviceSlug(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
