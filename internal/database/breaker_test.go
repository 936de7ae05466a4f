package database

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/metrics"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
)

type flakyWriter struct {
	calls atomic.Int32
	err   error
}

func (w *flakyWriter) SaveRun(ctx context.Context, summary *models.DetectionSummary, rows []models.ResultRow) error {
	w.calls.Add(1)
	return w.err
}

func testSettings(name string) BreakerSettings {
	s := DefaultBreakerSettings()
	s.Name = name
	s.MinRequests = 3
	s.Timeout = time.Hour
	return s
}

func TestResilientStorePassesThrough(t *testing.T) {
	w := &flakyWriter{}
	store := NewResilientStore(w, testSettings("test-pass"))

	summary := &models.DetectionSummary{RunID: "r1", Device: "Weather"}
	require.NoError(t, store.SaveRun(context.Background(), summary, nil))
	assert.Equal(t, int32(1), w.calls.Load())
	assert.Equal(t, gobreaker.StateClosed, store.State())
	assert.True(t, store.Ready())
}

func TestResilientStoreOpensAfterFailures(t *testing.T) {
	cause := errors.New("connection refused")
	w := &flakyWriter{err: cause}
	store := NewResilientStore(w, testSettings("test-open"))
	summary := &models.DetectionSummary{RunID: "r1", Device: "Weather"}

	for i := 0; i < 3; i++ {
		err := store.SaveRun(context.Background(), summary, nil)
		assert.ErrorIs(t, err, cause)
	}
	assert.Equal(t, gobreaker.StateOpen, store.State())
	assert.False(t, store.Ready())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-open")))

	err := store.SaveRun(context.Background(), summary, nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), w.calls.Load(), "open breaker does not call the writer")
}

func TestAllTables(t *testing.T) {
	tables := AllTables()
	require.Len(t, tables, 2)
	assert.Contains(t, tables[0], "detection_runs")
	assert.Contains(t, tables[1], "detection_predictions")
}
