package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/metrics"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/pipeline"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/report"
)

// Sources of detection requests, recorded with every run.
const (
	SourceAPI  = "api"
	SourceMQTT = "mqtt"
)

// unknownDeviceLabel keeps arbitrary device names out of metric labels.
const unknownDeviceLabel = "unknown"

// RunStore persists detection runs.
type RunStore interface {
	SaveRun(ctx context.Context, summary *models.DetectionSummary, rows []models.ResultRow) error
}

// Outcome is what a caller gets back from a run. It is returned even when the run
// fails so the run ID can be reported alongside the error.
type Outcome struct {
	RunID   string
	Result  *models.Result
	Summary *models.DetectionSummary
}

// DetectionService wraps the detection pipeline with run IDs, metrics and the
// best-effort result sinks
type DetectionService struct {
	detector *pipeline.Detector
	store    RunStore

	// Input channel from the MQTT subscriber
	RequestChan chan *models.DetectionRequest

	// Output channel to the MQTT publisher, nil when MQTT is disabled
	resultChan chan<- *models.DetectionSummary

	workers      int
	storeTimeout time.Duration
	log          zerolog.Logger

	newID func() string
	now   func() time.Time
}

// DetectionServiceConfig holds configuration for the detection service
type DetectionServiceConfig struct {
	RequestChannelSize int
	Workers            int           // MQTT requests processed concurrently
	StoreTimeout       time.Duration // bound on each RunStore write
}

// DefaultDetectionServiceConfig returns default configuration
func DefaultDetectionServiceConfig() DetectionServiceConfig {
	return DetectionServiceConfig{
		RequestChannelSize: 32,
		Workers:            2,
		StoreTimeout:       5 * time.Second,
	}
}

// NewDetectionService creates a detection service. store and resultChan may be nil.
func NewDetectionService(
	detector *pipeline.Detector,
	store RunStore,
	resultChan chan<- *models.DetectionSummary,
	config DetectionServiceConfig,
) *DetectionService {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &DetectionService{
		detector:     detector,
		store:        store,
		RequestChan:  make(chan *models.DetectionRequest, config.RequestChannelSize),
		resultChan:   resultChan,
		workers:      config.Workers,
		storeTimeout: config.StoreTimeout,
		log:          logging.Component("detection-service"),
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// Detector returns the underlying pipeline.
func (s *DetectionService) Detector() *pipeline.Detector {
	return s.detector
}

// Detect runs a detection submitted through the API.
func (s *DetectionService) Detect(ctx context.Context, device string, data []byte) (*Outcome, error) {
	return s.run(ctx, SourceAPI, device, data)
}

// Start processes MQTT detection requests from RequestChan
// Runs until context is cancelled or the channel is closed
func (s *DetectionService) Start(ctx context.Context) {
	s.log.Info().Int("workers", s.workers).Msg("starting request loop")

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.processRequestLoop(ctx)
		}()
	}
	wg.Wait()

	s.log.Info().Msg("request loop stopped")
}

// processRequestLoop continuously processes detection requests
func (s *DetectionService) processRequestLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-s.RequestChan:
			if !ok {
				return
			}
			s.processRequest(ctx, req)
		}
	}
}

// processRequest resolves the topic slug to a device name and runs the detection.
// An unknown slug still produces a failed run so the sender gets an answer.
func (s *DetectionService) processRequest(ctx context.Context, req *models.DetectionRequest) {
	device := req.DeviceSlug
	if profile, err := s.detector.Registry().LookupSlug(req.DeviceSlug); err == nil {
		device = profile.Name
	}

	// Errors are already logged and published by run.
	_, _ = s.run(ctx, SourceMQTT, device, req.Payload)
}

func (s *DetectionService) run(ctx context.Context, source, device string, data []byte) (*Outcome, error) {
	start := s.now()
	runID := s.newID()

	res, err := s.detector.Detect(ctx, device, data)
	elapsed := s.now().Sub(start)
	kind := pipeline.Kind(err)

	summary := &models.DetectionSummary{
		RunID:      runID,
		Device:     device,
		Source:     source,
		Timestamp:  start,
		DurationMs: float64(elapsed.Microseconds()) / 1000,
	}

	metricDevice := device
	if kind == pipeline.KindUnknownDevice {
		metricDevice = unknownDeviceLabel
	}

	var rows []models.ResultRow
	if err != nil {
		summary.Error = err.Error()
		summary.ErrorKind = kind.String()
	} else {
		rows = res.Rows
		summary.Rows = len(rows)
		summary.Counts = report.Summarize(rows)
		metrics.RecordPredictions(metricDevice, summary.Counts)
	}
	metrics.RecordDetection(metricDevice, kind.String(), elapsed)

	log := s.log.With().Str("run_id", runID).Str("device", device).Str("source", source).Logger()
	switch {
	case err == nil:
		log.Info().Int("rows", summary.Rows).Dur("elapsed", elapsed).Msg("detection complete")
	case kind.ClientError() || kind == pipeline.KindCanceled:
		log.Warn().Err(err).Str("kind", kind.String()).Msg("detection rejected")
	default:
		log.Error().Err(err).Str("kind", kind.String()).Msg("detection failed")
	}

	s.save(ctx, summary, rows)
	s.publish(summary)

	return &Outcome{RunID: runID, Result: res, Summary: summary}, err
}

// save writes the run to the store. Failures are logged, never returned.
func (s *DetectionService) save(ctx context.Context, summary *models.DetectionSummary, rows []models.ResultRow) {
	if s.store == nil {
		return
	}

	// The audit write should survive the caller hanging up.
	ctx = context.WithoutCancel(ctx)
	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
	}

	if err := s.store.SaveRun(ctx, summary, rows); err != nil {
		metrics.SinkErrors.WithLabelValues("clickhouse").Inc()
		s.log.Warn().Err(err).Str("run_id", summary.RunID).Msg("failed to save detection run")
	}
}

// publish hands the summary to the MQTT publisher without blocking.
func (s *DetectionService) publish(summary *models.DetectionSummary) {
	if s.resultChan == nil {
		return
	}

	select {
	case s.resultChan <- summary:
	default:
		metrics.SinkErrors.WithLabelValues("mqtt").Inc()
		s.log.Warn().Str("run_id", summary.RunID).Msg("result channel full, dropping summary")
	}
}
