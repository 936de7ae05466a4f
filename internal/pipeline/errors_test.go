package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		err  error
		kind ErrorKind
	}{
		{nil, KindNone},
		{&UnknownDeviceError{Device: "x"}, KindUnknownDevice},
		{&ModelLoadError{Device: "Fridge", Err: cause}, KindModelLoad},
		{fmt.Errorf("wrapped: %w", &InputParseError{Err: cause}), KindInputParse},
		{&DateTimeProcessingError{Err: cause}, KindDateTime},
		{&SchemaValidationError{Device: "Fridge", Missing: []string{"door_open"}}, KindSchemaValidation},
		{&PredictionError{Device: "Fridge", Err: cause}, KindPrediction},
		{context.DeadlineExceeded, KindCanceled},
		{&ModelLoadError{Device: "Fridge", Err: context.Canceled}, KindCanceled},
		{&ModelLoadError{Device: "Fridge", Err: fmt.Errorf("read: %w", context.DeadlineExceeded)}, KindCanceled},
		{cause, KindInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, Kind(tt.err), "%v", tt.err)
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("disk on fire")

	assert.ErrorIs(t, &ModelLoadError{Device: "Weather", Err: cause}, cause)
	assert.ErrorIs(t, &InputParseError{Err: cause}, cause)
	assert.ErrorIs(t, &DateTimeProcessingError{Err: cause}, cause)
	assert.ErrorIs(t, &PredictionError{Device: "Weather", Err: cause}, cause)
}

func TestKindStringAndClientError(t *testing.T) {
	assert.Equal(t, "schema_validation", KindSchemaValidation.String())
	assert.Equal(t, "ok", KindNone.String())
	assert.True(t, KindSchemaValidation.ClientError())
	assert.True(t, KindUnknownDevice.ClientError())
	assert.False(t, KindModelLoad.ClientError())
	assert.False(t, KindPrediction.ClientError())
}
