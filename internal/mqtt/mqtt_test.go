package mqtt

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/metrics"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func TestExtractDeviceSlug(t *testing.T) {
	tests := map[string]string{
		"ids/garage_door/logs": "garage_door",
		"ids/weather":          "weather",
		"ids":                  "",
		"":                     "",
	}
	for topic, want := range tests {
		assert.Equal(t, want, extractDeviceSlug(topic), "topic %q", topic)
	}
}

func TestFormatTopic(t *testing.T) {
	assert.Equal(t, "ids/gps_tracker/results", formatTopic("ids/{device}/results", "gps_tracker"))
	assert.Equal(t, "fixed/topic", formatTopic("fixed/topic", "gps_tracker"))
}

func TestHandleLogsEnqueuesRequest(t *testing.T) {
	ch := make(chan *models.DetectionRequest, 1)
	s := NewSubscriber(nil, SubscriberConfig{RequestTopic: "ids/+/logs"}, ch)
	before := testutil.ToFloat64(metrics.MQTTRequestsReceived)

	payload := []byte("date,time\n")
	s.handleLogs(nil, &fakeMessage{topic: "ids/fridge/logs", payload: payload})
	payload[0] = 'X'

	select {
	case req := <-ch:
		assert.Equal(t, "fridge", req.DeviceSlug)
		assert.Equal(t, "date,time\n", string(req.Payload))
		assert.False(t, req.ReceivedAt.IsZero())
	default:
		t.Fatal("no request enqueued")
	}
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MQTTRequestsReceived))
}

func TestHandleLogsDropsWhenFull(t *testing.T) {
	ch := make(chan *models.DetectionRequest)
	s := NewSubscriber(nil, SubscriberConfig{EnqueueTimeout: 10 * time.Millisecond}, ch)
	before := testutil.ToFloat64(metrics.MQTTRequestsDropped)

	s.handleLogs(nil, &fakeMessage{topic: "ids/fridge/logs", payload: []byte("x")})

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MQTTRequestsDropped))
}

func TestHandleLogsIgnoresBadTopic(t *testing.T) {
	ch := make(chan *models.DetectionRequest, 1)
	s := NewSubscriber(nil, SubscriberConfig{}, ch)

	s.handleLogs(nil, &fakeMessage{topic: "ids", payload: []byte("x")})
	assert.Empty(t, ch)
}

func TestEncodeSummary(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := encodeSummary(&models.DetectionSummary{
		RunID:     "6c1f",
		Device:    "Garage Door",
		Source:    "mqtt",
		Rows:      3,
		Counts:    map[string]int{"Normal": 2, "DDoS": 1},
		Timestamp: ts,
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "6c1f", got["run_id"])
	assert.Equal(t, "Garage Door", got["device"])
	assert.Equal(t, 3.0, got["rows"])
	assert.Equal(t, map[string]any{"Normal": 2.0, "DDoS": 1.0}, got["counts"])
	assert.Equal(t, float64(ts.Unix()), got["timestamp"])
	assert.NotContains(t, got, "error")
	assert.NotContains(t, got, "source")
}

func TestEncodeSummaryFailure(t *testing.T) {
	data, err := encodeSummary(&models.DetectionSummary{RunID: "r", Device: "Weather", Error: "missing features for Weather: humidity"})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "missing features for Weather: humidity", got["error"])
	assert.Equal(t, map[string]any{}, got["counts"])
}

func TestClientRunsConnectHooks(t *testing.T) {
	c := &Client{}
	var runs []string
	c.OnConnect(func() { runs = append(runs, "subscribe") })
	c.OnConnect(func() { runs = append(runs, "announce") })

	c.handleConnect(nil)
	c.handleConnect(nil)

	assert.Equal(t, []string{"subscribe", "announce", "subscribe", "announce"}, runs)
}

func TestClientNotConnectedWithoutSession(t *testing.T) {
	assert.False(t, (&Client{}).IsConnected())
}
