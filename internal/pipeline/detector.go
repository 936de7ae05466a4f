// Package pipeline turns an uploaded CSV log into per-row attack predictions for
// one device type.
//
// Detect runs a fixed sequence of stages and stops at the first failure:
//
//	lookup -> load model -> parse CSV -> derive date/time -> validate schema
//	       -> normalize -> assemble matrix -> predict -> decode -> report
//
// Malformed cells never fail a run; they reach the model as NaN. Malformed
// columns, files, artifacts and model faults always do, and no partial result is
// returned alongside an error.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/features"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/metrics"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/ml"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/registry"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/report"
)

// Detector runs detections. It keeps no per-run state and may be shared.
type Detector struct {
	registry *registry.Registry
	loader   ml.Loader
	log      zerolog.Logger
}

// New returns a Detector over a registry and a model loader.
func New(reg *registry.Registry, loader ml.Loader) *Detector {
	return &Detector{
		registry: reg,
		loader:   loader,
		log:      logging.Component("pipeline"),
	}
}

// Registry returns the registry the detector resolves devices against.
func (d *Detector) Registry() *registry.Registry {
	return d.registry
}

// Detect classifies every row of a CSV log for device.
func (d *Detector) Detect(ctx context.Context, device string, data []byte) (*models.Result, error) {
	profile, err := d.registry.Lookup(device)
	if err != nil {
		return nil, err
	}
	log := d.log.With().Str("device", profile.Name).Logger()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, err := d.loader.Load(ctx, profile.ModelRef)
	if err != nil {
		return nil, &ModelLoadError{Device: profile.Name, Err: err}
	}
	log.Debug().Str("model", profile.ModelRef).Msg("model ready")

	frame, err := features.ReadCSV(data)
	if err != nil {
		return nil, &InputParseError{Err: err}
	}
	log.Debug().Int("rows", frame.Len()).Int("bytes", len(data)).Msg("parsed input")

	if err := features.DeriveTemporal(frame); err != nil {
		return nil, &DateTimeProcessingError{Err: err}
	}

	if missing := frame.Missing(profile.RequiredFeatures); len(missing) > 0 {
		return nil, &SchemaValidationError{Device: profile.Name, Missing: missing}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	features.Normalize(profile.Name, frame)

	matrix, err := frame.Matrix(profile.RequiredFeatures)
	if err != nil {
		return nil, &PredictionError{Device: profile.Name, Err: err}
	}
	if nan := features.CountNaN(matrix); nan > 0 {
		metrics.MissingCells.WithLabelValues(profile.Name).Add(float64(nan))
		log.Debug().Int("missing_cells", nan).Msg("matrix contains missing values")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	labels, err := predict(model, matrix)
	if err != nil {
		return nil, &PredictionError{Device: profile.Name, Err: err}
	}
	if len(labels) != frame.Len() {
		return nil, &PredictionError{
			Device: profile.Name,
			Err:    fmt.Errorf("model returned %d labels for %d rows", len(labels), frame.Len()),
		}
	}

	rows := decode(frame, labels)
	res, err := report.Build(profile.Name, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}

	log.Debug().Int("rows", len(rows)).Msg("detection complete")
	return res, nil
}

// predict shields the run from a panicking model.
func predict(model ml.Model, matrix [][]float64) (labels []int, err error) {
	defer func() {
		if r := recover(); r != nil {
			labels = nil
			err = fmt.Errorf("model panicked: %v", r)
		}
	}()

	labels, err = model.Predict(matrix)
	if err == nil && labels == nil && len(matrix) > 0 {
		err = errors.New("model returned no labels")
	}
	return labels, err
}

func decode(frame *features.Frame, labels []int) []models.ResultRow {
	clocks, _ := frame.Strings(features.TimeColumn)

	rows := make([]models.ResultRow, len(labels))
	for i, id := range labels {
		var date string
		if t, ok := frame.Date(i); ok {
			date = t.Format(features.DateDisplay)
		}
		rows[i] = models.ResultRow{
			Date:       date,
			Time:       clocks[i],
			Prediction: models.DecodeLabel(id),
		}
	}
	return rows
}
