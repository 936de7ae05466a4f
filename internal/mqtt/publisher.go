package mqtt

import (
	"context"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/metrics"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
)

// Publisher handles MQTT publishing from channels
type Publisher struct {
	client mqtt.Client

	// Input channel (read by publisher, written by the detection service)
	ResultChan chan *models.DetectionSummary

	resultTopic string // e.g., "ids/{device}/results"
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	ResultTopic string // e.g., "ids/{device}/results"
}

// NewPublisher creates a new MQTT publisher with channels
func NewPublisher(
	client mqtt.Client,
	config PublisherConfig,
	resultChan chan *models.DetectionSummary,
) *Publisher {
	return &Publisher{
		client:      client,
		ResultChan:  resultChan,
		resultTopic: config.ResultTopic,
	}
}

// Start begins publishing run summaries from the channel
// Runs until context is cancelled or channel is closed
func (p *Publisher) Start(ctx context.Context) {
	logger().Info().Str("topic", p.resultTopic).Msg("publisher starting")

	for {
		select {
		case <-ctx.Done():
			logger().Info().Msg("publisher: context cancelled, shutting down")
			return

		case summary, ok := <-p.ResultChan:
			if !ok {
				logger().Info().Msg("publisher: result channel closed, shutting down")
				return
			}

			if err := p.publishSummary(summary); err != nil {
				metrics.SinkErrors.WithLabelValues("mqtt").Inc()
				logger().Error().Err(err).Str("run_id", summary.RunID).Msg("error publishing detection summary")
			}
		}
	}
}

// publishSummary publishes one run summary under the device's result topic
func (p *Publisher) publishSummary(summary *models.DetectionSummary) error {
	payload, err := encodeSummary(summary)
	if err != nil {
		return err
	}

	topic := formatTopic(p.resultTopic, models.Slugify(summary.Device))

	token := p.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish detection summary: %w", token.Error())
	}

	logger().Debug().Str("run_id", summary.RunID).Str("topic", topic).Msg("published detection summary")
	return nil
}

// resultMessage is the wire form of a run summary.
type resultMessage struct {
	RunID     string         `json:"run_id"`
	Device    string         `json:"device"`
	Rows      int            `json:"rows"`
	Counts    map[string]int `json:"counts"`
	Error     string         `json:"error,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

func encodeSummary(s *models.DetectionSummary) ([]byte, error) {
	counts := s.Counts
	if counts == nil {
		counts = map[string]int{}
	}
	payload, err := json.Marshal(resultMessage{
		RunID:     s.RunID,
		Device:    s.Device,
		Rows:      s.Rows,
		Counts:    counts,
		Error:     s.Error,
		Timestamp: s.Timestamp.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal detection summary: %w", err)
	}
	return payload, nil
}

// formatTopic replaces the {device} placeholder with the device slug
func formatTopic(topicPattern, slug string) string {
	return strings.ReplaceAll(topicPattern, "{device}", slug)
}
