package ml

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
)

// SampleArtifact builds a deterministic demonstration classifier over features.
// It is not trained on anything; it exists so the service can run end to end
// before real artifacts are exported. The first two features are taken to be
// date_numeric and time_numeric and the last to be the label column.
func SampleArtifact(device string, features []string) Artifact {
	classes := []int{0, 1, 2, 3, 4, 5, 6, 7}
	weights := make([][]float64, len(classes))
	intercepts := make([]float64, len(classes))
	impute := make([]*float64, len(features))

	for k := range classes {
		weights[k] = make([]float64, len(features))
		for j := range features {
			switch {
			case j == 0 || j == len(features)-1:
				// date_numeric and label carry no signal
			case j == 1:
				weights[k][j] = float64(k) * 1e-5
			default:
				weights[k][j] = float64((k*7+j*3)%11-5) / 100
			}
		}
	}
	intercepts[0] = 2.5

	noon := 43200.0
	zero := 0.0
	for j := 1; j < len(features)-1; j++ {
		if j == 1 {
			impute[j] = &noon
		} else {
			impute[j] = &zero
		}
	}

	return Artifact{
		Device:     device,
		Version:    "sample-1",
		Features:   append([]string(nil), features...),
		Classes:    classes,
		Weights:    weights,
		Intercepts: intercepts,
		Impute:     impute,
	}
}

// WriteSampleModel writes SampleArtifact to path.
func WriteSampleModel(path, device string, features []string) error {
	artifact := SampleArtifact(device, features)

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}

	log := logging.Component("ml")
	log.Info().Str("path", path).Str("device", device).Msg("created sample model")
	return nil
}
