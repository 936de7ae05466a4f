package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/registry"
)

// UnknownDeviceError is returned when the device is not in the registry.
type UnknownDeviceError = registry.UnknownDeviceError

// ModelLoadError means the device's model artifact is missing or corrupt.
type ModelLoadError struct {
	Device string
	Err    error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("error loading model for %s: %v", e.Device, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// InputParseError means the uploaded bytes are not a readable CSV log.
type InputParseError struct {
	Err error
}

func (e *InputParseError) Error() string {
	return fmt.Sprintf("error reading file: %v", e.Err)
}

func (e *InputParseError) Unwrap() error { return e.Err }

// DateTimeProcessingError means date/time derivation failed for the whole batch.
type DateTimeProcessingError struct {
	Err error
}

func (e *DateTimeProcessingError) Error() string {
	return fmt.Sprintf("error processing date/time: %v", e.Err)
}

func (e *DateTimeProcessingError) Unwrap() error { return e.Err }

// SchemaValidationError lists the required feature columns absent from the input.
type SchemaValidationError struct {
	Device  string
	Missing []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("missing features for %s: %s", e.Device, strings.Join(e.Missing, ", "))
}

// PredictionError means the model rejected the feature matrix or failed internally.
type PredictionError struct {
	Device string
	Err    error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("error during prediction for %s: %v", e.Device, e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }

// ErrorKind is the closed set of ways a detection run can fail.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindUnknownDevice
	KindModelLoad
	KindInputParse
	KindDateTime
	KindSchemaValidation
	KindPrediction
	KindCanceled
	KindInternal
)

var kindNames = map[ErrorKind]string{
	KindNone:             "ok",
	KindUnknownDevice:    "unknown_device",
	KindModelLoad:        "model_load",
	KindInputParse:       "input_parse",
	KindDateTime:         "datetime_processing",
	KindSchemaValidation: "schema_validation",
	KindPrediction:       "prediction",
	KindCanceled:         "canceled",
	KindInternal:         "internal",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "internal"
}

// ClientError reports whether the failure was caused by the caller's input
// rather than by the service or its artifacts.
func (k ErrorKind) ClientError() bool {
	switch k {
	case KindUnknownDevice, KindInputParse, KindDateTime, KindSchemaValidation:
		return true
	default:
		return false
	}
}

// Kind classifies an error returned by Detect.
func Kind(err error) ErrorKind {
	var (
		unknown   *UnknownDeviceError
		modelLoad *ModelLoadError
		parse     *InputParseError
		dateTime  *DateTimeProcessingError
		schema    *SchemaValidationError
		predict   *PredictionError
	)

	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &unknown):
		return KindUnknownDevice
	case errors.As(err, &modelLoad):
		return KindModelLoad
	case errors.As(err, &parse):
		return KindInputParse
	case errors.As(err, &dateTime):
		return KindDateTime
	case errors.As(err, &schema):
		return KindSchemaValidation
	case errors.As(err, &predict):
		return KindPrediction
	default:
		return KindInternal
	}
}
