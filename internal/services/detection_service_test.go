package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/metrics"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/ml"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/pipeline"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/registry"
)

type constModel struct{ label int }

func (m constModel) Predict(matrix [][]float64) ([]int, error) {
	out := make([]int, len(matrix))
	for i := range out {
		out[i] = m.label
	}
	return out, nil
}

type staticLoader struct{ model ml.Model }

func (l staticLoader) Load(ctx context.Context, ref string) (ml.Model, error) {
	return l.model, nil
}

type savedRun struct {
	summary *models.DetectionSummary
	rows    []models.ResultRow
	ctxErr  error
}

type fakeStore struct {
	mu   sync.Mutex
	runs []savedRun
	err  error
}

func (s *fakeStore) SaveRun(ctx context.Context, summary *models.DetectionSummary, rows []models.ResultRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, savedRun{summary: summary, rows: rows, ctxErr: ctx.Err()})
	return s.err
}

func (s *fakeStore) saved() []savedRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]savedRun(nil), s.runs...)
}

const weatherCSV = "date,time,temperature,humidity,label\n" +
	"26-04-19,13:59:20,20,40,0\n" +
	"26-04-19,14:00:00,21,41,0\n"

func newService(t *testing.T, store RunStore, results chan *models.DetectionSummary) *DetectionService {
	t.Helper()
	detector := pipeline.New(registry.New(t.TempDir()), staticLoader{model: constModel{label: 2}})
	svc := NewDetectionService(detector, store, results, DefaultDetectionServiceConfig())
	svc.newID = func() string { return "run-1" }
	return svc
}

func TestDetectSuccess(t *testing.T) {
	store := &fakeStore{}
	results := make(chan *models.DetectionSummary, 1)
	svc := newService(t, store, results)
	before := testutil.ToFloat64(metrics.DetectionsTotal.WithLabelValues(registry.Weather, "ok"))

	out, err := svc.Detect(context.Background(), registry.Weather, []byte(weatherCSV))
	require.NoError(t, err)

	assert.Equal(t, "run-1", out.RunID)
	require.Len(t, out.Result.Rows, 2)
	assert.Equal(t, "DDoS", out.Result.Rows[0].Prediction)
	assert.Equal(t, map[string]int{"DDoS": 2}, out.Summary.Counts)
	assert.Equal(t, SourceAPI, out.Summary.Source)
	assert.False(t, out.Summary.Failed())

	runs := store.saved()
	require.Len(t, runs, 1)
	assert.Equal(t, out.Result.Rows, runs[0].rows)

	select {
	case s := <-results:
		assert.Same(t, out.Summary, s)
	default:
		t.Fatal("summary not published")
	}

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DetectionsTotal.WithLabelValues(registry.Weather, "ok")))
}

func TestDetectFailureStillRecorded(t *testing.T) {
	store := &fakeStore{}
	results := make(chan *models.DetectionSummary, 1)
	svc := newService(t, store, results)

	out, err := svc.Detect(context.Background(), registry.Weather, []byte("date,time,temperature,label\n26-04-19,13:59:20,20,0\n"))
	require.Error(t, err)
	assert.Equal(t, pipeline.KindSchemaValidation, pipeline.Kind(err))

	require.NotNil(t, out)
	assert.Nil(t, out.Result)
	assert.Equal(t, "schema_validation", out.Summary.ErrorKind)
	assert.Equal(t, "missing features for Weather: humidity", out.Summary.Error)
	assert.True(t, out.Summary.Failed())

	runs := store.saved()
	require.Len(t, runs, 1)
	assert.Empty(t, runs[0].rows)
	assert.Len(t, results, 1)
}

func TestDetectUnknownDeviceMetricLabel(t *testing.T) {
	svc := newService(t, nil, nil)
	before := testutil.ToFloat64(metrics.DetectionsTotal.WithLabelValues("unknown", "unknown_device"))

	_, err := svc.Detect(context.Background(), "Toaster", []byte(weatherCSV))
	require.Error(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DetectionsTotal.WithLabelValues("unknown", "unknown_device")))
}

func TestDetectSinkFailuresAreNotReturned(t *testing.T) {
	store := &fakeStore{err: errors.New("clickhouse down")}
	results := make(chan *models.DetectionSummary) // unbuffered and never read
	svc := newService(t, store, results)

	storeErrs := testutil.ToFloat64(metrics.SinkErrors.WithLabelValues("clickhouse"))
	mqttErrs := testutil.ToFloat64(metrics.SinkErrors.WithLabelValues("mqtt"))

	out, err := svc.Detect(context.Background(), registry.Weather, []byte(weatherCSV))
	require.NoError(t, err)
	assert.Len(t, out.Result.Rows, 2)

	assert.Equal(t, storeErrs+1, testutil.ToFloat64(metrics.SinkErrors.WithLabelValues("clickhouse")))
	assert.Equal(t, mqttErrs+1, testutil.ToFloat64(metrics.SinkErrors.WithLabelValues("mqtt")))
}

func TestSaveOutlivesCanceledRequest(t *testing.T) {
	store := &fakeStore{}
	svc := newService(t, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Detect(ctx, registry.Weather, []byte(weatherCSV))
	assert.Equal(t, pipeline.KindCanceled, pipeline.Kind(err))

	runs := store.saved()
	require.Len(t, runs, 1)
	assert.NoError(t, runs[0].ctxErr)
	assert.Equal(t, "canceled", runs[0].summary.ErrorKind)
}

func TestStartProcessesMQTTRequests(t *testing.T) {
	results := make(chan *models.DetectionSummary, 2)
	svc := newService(t, nil, results)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	svc.RequestChan <- &models.DetectionRequest{DeviceSlug: "weather", Payload: []byte(weatherCSV), ReceivedAt: time.Now()}
	svc.RequestChan <- &models.DetectionRequest{DeviceSlug: "toaster", Payload: []byte(weatherCSV), ReceivedAt: time.Now()}

	got := map[string]*models.DetectionSummary{}
	for i := 0; i < 2; i++ {
		select {
		case s := <-results:
			got[s.Device] = s
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for summary")
		}
	}

	require.Contains(t, got, registry.Weather)
	assert.Equal(t, SourceMQTT, got[registry.Weather].Source)
	assert.Equal(t, 2, got[registry.Weather].Rows)

	require.Contains(t, got, "toaster")
	assert.Equal(t, "unknown_device", got["toaster"].ErrorKind)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStartReturnsWhenChannelCloses(t *testing.T) {
	svc := newService(t, nil, nil)
	close(svc.RequestChan)

	done := make(chan struct{})
	go func() {
		svc.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after channel close")
	}
}
