// Package ml loads per-device classifier artifacts and runs them over feature matrices.
package ml

import (
	"errors"
	"fmt"
	"math"
)

// Model is a trained classifier. Implementations must be safe for concurrent use
// and must not modify the matrix.
type Model interface {
	Predict(matrix [][]float64) ([]int, error)
}

// Artifact is the on-disk form of a multi-class linear classifier.
type Artifact struct {
	Device     string      `json:"device"`
	Version    string      `json:"version"`
	Features   []string    `json:"features"`
	Classes    []int       `json:"classes"`
	Weights    [][]float64 `json:"weights"`    // one row per class, one weight per feature
	Intercepts []float64   `json:"intercepts"` // one per class
	Impute     []*float64  `json:"impute,omitempty"`
}

// Validate checks that the artifact's shapes agree.
func (a *Artifact) Validate() error {
	if len(a.Features) == 0 {
		return errors.New("model has no features")
	}
	if len(a.Classes) == 0 {
		return errors.New("model has no classes")
	}
	if len(a.Weights) != len(a.Classes) {
		return fmt.Errorf("model has %d weight rows for %d classes", len(a.Weights), len(a.Classes))
	}
	if len(a.Intercepts) != len(a.Classes) {
		return fmt.Errorf("model has %d intercepts for %d classes", len(a.Intercepts), len(a.Classes))
	}
	for k, row := range a.Weights {
		if len(row) != len(a.Features) {
			return fmt.Errorf("weight row %d has %d values for %d features", k, len(row), len(a.Features))
		}
	}
	if len(a.Impute) != 0 && len(a.Impute) != len(a.Features) {
		return fmt.Errorf("model has %d impute values for %d features", len(a.Impute), len(a.Features))
	}
	return nil
}

// LinearModel scores each row against every class and returns the best class.
type LinearModel struct {
	artifact Artifact
	unused   []bool // features every class ignores
}

// NewLinearModel validates an artifact and builds a model from it.
func NewLinearModel(a Artifact) (*LinearModel, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	unused := make([]bool, len(a.Features))
	for j := range a.Features {
		unused[j] = true
		for k := range a.Classes {
			if a.Weights[k][j] != 0 {
				unused[j] = false
				break
			}
		}
	}

	return &LinearModel{artifact: a, unused: unused}, nil
}

// Device returns the device the model was trained for.
func (m *LinearModel) Device() string { return m.artifact.Device }

// Version returns the artifact version string.
func (m *LinearModel) Version() string { return m.artifact.Version }

// Features returns the column order the model expects.
func (m *LinearModel) Features() []string {
	return append([]string(nil), m.artifact.Features...)
}

// Predict returns one class id per row. A NaN cell is imputed when the artifact
// provides a value and skipped when no class weighs that feature; otherwise the
// call fails.
func (m *LinearModel) Predict(matrix [][]float64) ([]int, error) {
	a := &m.artifact
	width := len(a.Features)
	out := make([]int, len(matrix))
	scores := make([]float64, len(a.Classes))

	for i, row := range matrix {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, but model expects %d", i, len(row), width)
		}

		copy(scores, a.Intercepts)
		for j, v := range row {
			if math.IsNaN(v) {
				switch {
				case len(a.Impute) > 0 && a.Impute[j] != nil:
					v = *a.Impute[j]
				case m.unused[j]:
					continue
				default:
					return nil, fmt.Errorf("input contains NaN in feature %q (row %d)", a.Features[j], i)
				}
			}
			for k := range scores {
				scores[k] += a.Weights[k][j] * v
			}
		}

		best := 0
		for k := 1; k < len(scores); k++ {
			if scores[k] > scores[best] {
				best = k
			}
		}
		out[i] = a.Classes[best]
	}

	return out, nil
}
